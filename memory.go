package fixtures

import (
	"github.com/tklauser/go-sysconf"
)

const fallbackMemoryMB = 1024

// memoryMB is the host's physical memory, or fallbackMemoryMB when sysconf can't tell.
func memoryMB() int64 {
	pages, err := sysconf.Sysconf(sysconf.SC_PHYS_PAGES)
	if err != nil {
		return fallbackMemoryMB
	}
	size, err := sysconf.Sysconf(sysconf.SC_PAGE_SIZE)
	if err != nil {
		return fallbackMemoryMB
	}
	if mb := pages * size / 1e6; mb > 0 {
		return mb
	}
	return fallbackMemoryMB
}
