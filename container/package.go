package container

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/fastxlsx/compress"
	"github.com/arloliu/fastxlsx/errs"
	"github.com/arloliu/fastxlsx/format"
	"github.com/arloliu/fastxlsx/internal/pool"
)

const (
	stagePattern   = "fastxlsx-*"
	archivePattern = ".fastxlsx-*.tmp"
	filePerm       = 0o644
	dirPerm        = 0o755
	writeBufSize   = 64 * 1024
)

// Workbook describes the parts written next to the sheet.
type Workbook struct {
	SheetName        string
	Formats          Formats
	SharedStrings    []string
	SharedStringRefs int
	Compression      format.CompressionType
}

// Stage is the staging directory of one build. Parts are written into it and
// then packed into the archive. Remove must be called on every exit path.
type Stage struct {
	dir    string
	logger *zap.Logger
}

// NewStage creates a fresh staging directory under workPath. An empty
// workPath uses os.TempDir().
func NewStage(workPath string, logger *zap.Logger) (*Stage, error) {
	if workPath == "" {
		workPath = os.TempDir()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dir, err := os.MkdirTemp(workPath, stagePattern)
	if err != nil {
		return nil, errs.IO("create staging directory", err)
	}

	return &Stage{dir: dir, logger: logger}, nil
}

// Dir returns the staging directory path.
func (s *Stage) Dir() string {
	return s.dir
}

// CreateSheet creates the sheet part for the assembler to stream into.
func (s *Stage) CreateSheet() (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(s.dir, SheetPart), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, errs.IO("create sheet part", err)
	}

	return f, nil
}

// Remove deletes the staging directory. Failures are logged, not returned.
func (s *Stage) Remove() {
	if err := os.RemoveAll(s.dir); err != nil {
		s.logger.Warn("failed to remove staging directory", zap.String("dir", s.dir), zap.Error(err))
	}
}

// WriteParts writes every part except the sheet into the staging directory.
// The parts are written concurrently.
func (s *Stage) WriteParts(wb Workbook) error {
	if err := os.MkdirAll(filepath.Join(s.dir, "_rels"), dirPerm); err != nil {
		return errs.IO("create _rels directory", err)
	}

	formats := wb.Formats
	if formats == (Formats{}) {
		formats = DefaultFormats()
	}

	writers := map[string]func(io.Writer) error{
		ContentTypesPart: func(w io.Writer) error {
			_, err := io.WriteString(w, contentTypesXML)
			return err
		},
		RootRelsPart: func(w io.Writer) error {
			_, err := io.WriteString(w, rootRelsXML)
			return err
		},
		WorkbookRelsPart: func(w io.Writer) error {
			_, err := io.WriteString(w, workbookRelsXML)
			return err
		},
		WorkbookPart: func(w io.Writer) error {
			return writeWorkbook(w, wb.SheetName)
		},
		StylesPart: func(w io.Writer) error {
			return writeStyles(w, formats)
		},
		SharedStringsPart: func(w io.Writer) error {
			return writeSharedStrings(w, wb.SharedStrings, wb.SharedStringRefs)
		},
	}

	var g errgroup.Group
	for name, write := range writers {
		g.Go(func() error {
			return s.writePart(name, write)
		})
	}

	return g.Wait()
}

func (s *Stage) writePart(name string, write func(io.Writer) error) error {
	f, err := os.OpenFile(filepath.Join(s.dir, filepath.FromSlash(name)), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return errs.IO("create "+name, err)
	}

	bb := pool.GetPartBuffer()
	defer pool.PutPartBuffer(bb)

	if err := write(bb); err != nil {
		_ = f.Close()
		return errs.IO("write "+name, err)
	}
	if _, err := bb.Drain(f); err != nil {
		_ = f.Close()
		return errs.IO("write "+name, err)
	}
	if err := f.Close(); err != nil {
		return errs.IO("close "+name, err)
	}

	return nil
}

// Pack zips the staged parts into target. The archive is written to a
// temporary file in the target directory and renamed over target, so an
// existing target is only replaced by a complete archive. It returns the
// archive size.
func (s *Stage) Pack(target string, compression format.CompressionType) (int64, error) {
	c, err := compress.GetCompressor(compression)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), archivePattern)
	if err != nil {
		return 0, errs.IO("create archive", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriterSize(tmp, writeBufSize)
	zw := zip.NewWriter(bw)
	c.Register(zw)

	for _, name := range partOrder {
		if err := s.addEntry(zw, name, c.Method()); err != nil {
			return 0, err
		}
	}

	if err := zw.Close(); err != nil {
		return 0, errs.IO("finish archive", err)
	}
	if err := bw.Flush(); err != nil {
		return 0, errs.IO("flush archive", err)
	}

	info, err := tmp.Stat()
	if err != nil {
		return 0, errs.IO("stat archive", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, errs.IO("close archive", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return 0, errs.IO("chmod archive", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return 0, errs.IO("replace "+target, err)
	}
	committed = true

	s.logger.Debug("archive written",
		zap.String("path", target),
		zap.Int64("bytes", info.Size()),
		zap.Stringer("compression", compression),
	)

	return info.Size(), nil
}

func (s *Stage) addEntry(zw *zip.Writer, name string, method uint16) error {
	src, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(name)))
	if err != nil {
		return errs.IO("open "+name, err)
	}
	defer src.Close()

	dst, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
	if err != nil {
		return errs.IO(fmt.Sprintf("add %s to archive", name), err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return errs.IO(fmt.Sprintf("compress %s", name), err)
	}

	return nil
}

// Finish writes the remaining parts and packs the archive into target.
func (s *Stage) Finish(target string, wb Workbook) (int64, error) {
	if err := s.WriteParts(wb); err != nil {
		return 0, err
	}

	return s.Pack(target, wb.Compression)
}
