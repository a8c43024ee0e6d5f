package events

import "github.com/dshills/tickbus/internal/event"

// Resource pipeline payload kinds.
const (
	KindUpdatePackageCallback  event.Kind = "update_package_callback"
	KindFoundUpdateFiles       event.Kind = "found_update_files"
	KindWebFileDownloadFailed  event.Kind = "web_file_download_failed"
	KindDownloadProgress       event.Kind = "download_progress"
	KindInitializeAssetsFinish event.Kind = "initialize_assets_finish"
)

// CallbackType tells the resource pipeline which step to retry.
type CallbackType int

// Retry steps requested through UpdatePackageCallback.
const (
	CallbackReinitializePackage CallbackType = iota
	CallbackDownloadWebFiles
	CallbackRetryPackageVersion
	CallbackRetryPatchManifest
	CallbackRetryDownload
)

// String returns the name of the callback type.
func (c CallbackType) String() string {
	switch c {
	case CallbackReinitializePackage:
		return "reinitialize_package"
	case CallbackDownloadWebFiles:
		return "download_web_files"
	case CallbackRetryPackageVersion:
		return "retry_package_version"
	case CallbackRetryPatchManifest:
		return "retry_patch_manifest"
	case CallbackRetryDownload:
		return "retry_download"
	default:
		return "unknown"
	}
}

// UpdatePackageCallbackData is fired by the UI to ask the resource pipeline
// to retry a step.
type UpdatePackageCallbackData struct {
	Type CallbackType
}

// Payload tags the value for the bus.
func (d UpdatePackageCallbackData) Payload() event.Payload {
	return event.Typed(KindUpdatePackageCallback, d)
}

// FoundUpdateFilesData reports the files an update will download.
type FoundUpdateFilesData struct {
	// TotalCount is the number of files to download.
	TotalCount int

	// TotalSizeBytes is the combined size of those files.
	TotalSizeBytes int64
}

// Payload tags the value for the bus.
func (d FoundUpdateFilesData) Payload() event.Payload {
	return event.Typed(KindFoundUpdateFiles, d)
}

// WebFileDownloadFailedData reports a single failed download.
type WebFileDownloadFailedData struct {
	FileName string
	Error    string
}

// Payload tags the value for the bus.
func (d WebFileDownloadFailedData) Payload() event.Payload {
	return event.Typed(KindWebFileDownloadFailed, d)
}

// DownloadProgress reports download progress.
type DownloadProgress struct {
	TotalDownloadCount       int
	CurrentDownloadCount     int
	TotalDownloadSizeBytes   int64
	CurrentDownloadSizeBytes int64
}

// Payload tags the value for the bus.
func (d DownloadProgress) Payload() event.Payload {
	return event.Typed(KindDownloadProgress, d)
}

// Fraction returns completed bytes as a fraction of the total in [0, 1].
func (d DownloadProgress) Fraction() float64 {
	if d.TotalDownloadSizeBytes <= 0 {
		return 0
	}
	f := float64(d.CurrentDownloadSizeBytes) / float64(d.TotalDownloadSizeBytes)
	if f > 1 {
		return 1
	}
	return f
}

// InitializeAssetsFinishData reports the end of asset initialization.
type InitializeAssetsFinishData struct {
	Finished bool
}

// Payload tags the value for the bus.
func (d InitializeAssetsFinishData) Payload() event.Payload {
	return event.Typed(KindInitializeAssetsFinish, d)
}
