package bplus

import "errors"

var (
	// ErrBadIndexInfo means an existing index file's metadata page does not
	// match the parameters it was reopened with, or is corrupt.
	ErrBadIndexInfo = errors.New("index metadata does not match open parameters")

	// ErrBadOpcodes means a scan was started with a comparator outside the
	// allowed set (low: GT/GTE, high: LT/LTE).
	ErrBadOpcodes = errors.New("bad scan comparators")

	// ErrBadScanRange means the scan's low bound exceeds its high bound.
	ErrBadScanRange = errors.New("scan low value greater than high value")

	// ErrNoSuchKeyFound means no leaf entry satisfies the scan's low bound.
	ErrNoSuchKeyFound = errors.New("no key in range")

	// ErrScanNotInitialized means ScanNext/EndScan was called with no scan
	// in progress.
	ErrScanNotInitialized = errors.New("scan not initialized")

	// ErrIndexScanCompleted means the scan has moved past the last entry
	// satisfying the high bound.
	ErrIndexScanCompleted = errors.New("index scan completed")
)
