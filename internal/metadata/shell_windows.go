//go:build windows

package metadata

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// Explorer exposes a few hundred detail columns; the length column is found by name.
const maxShellColumns = 300

// sFalse is returned by CoInitializeEx when the thread is already initialized.
const sFalse = 1

type shellRequest struct {
	path  string
	reply chan shellReply
}

type shellReply struct {
	seconds int
	ok      bool
}

// ShellProvider reads the Explorer "Length" column through Shell.Application.
// Shell COM objects are apartment-threaded, so every call is made from one
// goroutine locked to its OS thread; callers queue requests over a channel.
type ShellProvider struct {
	once      sync.Once
	requests  chan shellRequest
	ready     chan bool
	available bool
}

var defaultShell = &ShellProvider{
	requests: make(chan shellRequest),
	ready:    make(chan bool, 1),
}

// NewShellProvider returns the process-wide shell provider.
func NewShellProvider() PlatformProvider {
	return defaultShell
}

func (s *ShellProvider) Available() bool {
	s.once.Do(func() {
		go s.loop()
		s.available = <-s.ready
	})
	return s.available
}

func (s *ShellProvider) TryGetDuration(path string) (int, bool) {
	if !s.Available() {
		return 0, false
	}

	reply := make(chan shellReply, 1)
	s.requests <- shellRequest{path: path, reply: reply}
	r := <-reply
	return r.seconds, r.ok
}

func (s *ShellProvider) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		oleErr, ok := err.(*ole.OleError)
		if !ok || oleErr.Code() != sFalse {
			s.ready <- false
			return
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("Shell.Application")
	if err != nil {
		s.ready <- false
		return
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		s.ready <- false
		return
	}
	defer shell.Release()

	s.ready <- true

	column := -1
	for req := range s.requests {
		seconds, err := lookupLength(shell, req.path, &column)
		req.reply <- shellReply{seconds: seconds, ok: err == nil && seconds > 0}
	}
}

func lookupLength(shell *ole.IDispatch, path string, column *int) (seconds int, err error) {
	defer func() {
		if r := recover(); r != nil {
			seconds, err = 0, fmt.Errorf("shell panic: %v", r)
		}
	}()

	folderV, err := oleutil.CallMethod(shell, "NameSpace", filepath.Dir(path))
	if err != nil {
		return 0, err
	}
	defer folderV.Clear()

	folder := folderV.ToIDispatch()
	if folder == nil {
		return 0, fmt.Errorf("shell namespace unavailable for %s", filepath.Dir(path))
	}

	itemV, err := oleutil.CallMethod(folder, "ParseName", filepath.Base(path))
	if err != nil {
		return 0, err
	}
	defer itemV.Clear()

	item := itemV.ToIDispatch()
	if item == nil {
		return 0, fmt.Errorf("shell item not found: %s", path)
	}

	if *column < 0 {
		*column = findLengthColumn(folder)
		if *column < 0 {
			return 0, fmt.Errorf("length column not found")
		}
	}

	valueV, err := oleutil.CallMethod(folder, "GetDetailsOf", item, *column)
	if err != nil {
		return 0, err
	}
	defer valueV.Clear()

	return ParseDuration(valueV.ToString()), nil
}

func findLengthColumn(folder *ole.IDispatch) int {
	for i := 0; i < maxShellColumns; i++ {
		v, err := oleutil.CallMethod(folder, "GetDetailsOf", nil, i)
		if err != nil {
			continue
		}
		name := v.ToString()
		v.Clear()

		if strings.Contains(strings.ToLower(name), "length") || strings.Contains(name, "时长") {
			return i
		}
	}
	return -1
}
