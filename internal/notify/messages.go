package notify

import (
	"errors"
	"fmt"

	"github.com/lian/grab/internal/transfer"
)

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Grabbed reports the outcome of adding a selection. verb is "Grabbed" or "Added".
func Grabbed(verb string, added, total int) Notice {
	if added == 0 && verb == "Grabbed" {
		return Notice{Success, "Files already grabbed", "All selected files are already in your grabbed files list"}
	}
	return Notice{
		Style:   Success,
		Title:   fmt.Sprintf("%s %d file%s", verb, added, plural(added)),
		Message: fmt.Sprintf("Total: %d grabbed files", total),
	}
}

// NoSelection is shown when nothing usable is selected in the file manager.
func NoSelection() Notice {
	return Notice{Failure, "No files selected", "Please select files in Finder first"}
}

// GrabFailed is shown when the selection could not be read or saved.
func GrabFailed(verb string) Notice {
	title := "Error grabbing files"
	if verb == "Added" {
		title = "Error adding files"
	}
	return Notice{Failure, title, "Please make sure files are selected in Finder"}
}

func Removed() Notice {
	return Notice{Success, "File removed", "File removed from grabbed files"}
}

func Cleared() Notice {
	return Notice{Success, "Cleared all files", "All grabbed files have been removed"}
}

// NothingGrabbed is shown when a transfer is requested with an empty set.
func NothingGrabbed(op transfer.Op) Notice {
	title := "No files to move"
	if op == transfer.Copy {
		title = "No files to copy"
	}
	return Notice{Failure, title, "Please grab some files first"}
}

// Transferred summarizes a finished transfer run.
func Transferred(res transfer.Result) Notice {
	n := res.Success
	var title, verb, all string
	switch res.Op {
	case transfer.Copy:
		title = fmt.Sprintf("Copied %d file%s", n, plural(n))
		verb, all = "copy", "All files copied successfully"
	case transfer.Trash:
		title = fmt.Sprintf("Moved %d file%s to Trash", n, plural(n))
		verb, all = "move", "All files moved to Trash"
	default:
		title = fmt.Sprintf("Moved %d file%s", n, plural(n))
		verb, all = "move", "All files moved successfully"
	}
	msg := all
	if res.Failed > 0 {
		msg = fmt.Sprintf("%d files failed to %s", res.Failed, verb)
	}
	return Notice{Style: Success, Title: title, Message: msg}
}

// TransferFailed maps a run error to a notice.
func TransferFailed(op transfer.Op, err error) Notice {
	if errors.Is(err, transfer.ErrNothingToTransfer) {
		return NothingGrabbed(op)
	}
	if errors.Is(err, transfer.ErrBusy) {
		return Notice{Info, "Transfer in progress", "Wait for the current transfer to finish"}
	}
	switch op {
	case transfer.Copy:
		return Notice{Failure, "Error copying files", "Please check the destination path and permissions"}
	case transfer.Trash:
		return Notice{Failure, "Error moving files to trash", "Please check file permissions"}
	default:
		return Notice{Failure, "Error moving files", "Please check the destination path and permissions"}
	}
}

func OpenFailed() Notice {
	return Notice{Failure, "Error opening destination", "Please check the path in preferences"}
}

// CopiedPaths is shown after the grabbed paths were put on the clipboard.
func CopiedPaths(n int) Notice {
	return Notice{Success, fmt.Sprintf("Copied %d path%s", n, plural(n)), "Paths are on the clipboard"}
}

// StoreCorrupt is shown when the saved list could not be read.
func StoreCorrupt() Notice {
	return Notice{Failure, "Could not read grabbed files", "The saved list is damaged; keeping the current one"}
}
