//go:build linux

package recorder

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile берёт эксклюзивную рекомендательную блокировку без ожидания
func lockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
