// Package container packages a workbook into its SpreadsheetML zip archive.
//
// A build creates a Stage, streams the worksheet into Stage.CreateSheet, and
// calls Stage.Finish, which writes the fixed parts and zips the directory:
//
//	[Content_Types].xml
//	_rels/.rels
//	book.xml
//	_rels/book.xml.rels
//	styles.xml
//	strings.xml
//	sheet.xml
//
// The archive replaces the target atomically. Stage.Remove deletes the
// staging directory and must run whether the build succeeded or not.
package container
