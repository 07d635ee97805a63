/*
Package atomicfile writes files so that the destination either has the old
content or the complete new content, never a partial write.

Errors from Write(), Sync() and Close() are all checked and the temporary
file is removed when any of them fails:

	func saveInventory(path string, d []byte) error {
		f, err := atomicfile.New(path)
		if err != nil {
			return err
		}
		// no-op after Close()
		defer f.RemoveIfNotClosed()

		if _, err = f.Write(d); err != nil {
			return err
		}
		return f.Close()
	}

WriteFile does exactly that.
*/
package atomicfile
