// Package archive unpacks downloaded tool archives into a destination
// directory. Dispatch is purely by file extension:
//
//	.zip          zip
//	.gz, .tgz     gzip + tar
//	.tar          tar
//	.xz, .txz     host `tar -xJf`
//
// Any other extension yields ErrUnknownFormat before the destination is
// created. Zip, gzip and tar are decoded in-process; every entry path and
// symlink target is confined to the destination directory.
package archive
