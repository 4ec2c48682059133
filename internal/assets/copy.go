package assets

import (
	"fmt"
	"io"
	"os"
)

// fastCopy links src to dest when the filesystem allows it, falling
// back to a symlink and finally a byte copy. Asset trees routinely hold
// gigabytes of PDFs and audio, so avoiding real copies matters.
func fastCopy(src, dest string) error {
	if err := os.Link(src, dest); err == nil {
		return nil
	}
	if err := os.Symlink(src, dest); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	return nil
}
