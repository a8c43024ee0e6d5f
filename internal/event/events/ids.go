package events

import (
	"fmt"

	"github.com/dshills/tickbus/internal/event"
)

// Framework event ids. The 1001-1100 block is reserved for the framework.
const (
	// Resource pipeline
	UpdatePackageCallback      event.ID = 1001
	InitializeFailed           event.ID = 1002
	PackageVersionUpdateFailed event.ID = 1003
	PatchManifestUpdateFailed  event.ID = 1004
	WebFileDownloadFailed      event.ID = 1005
	UpdaterDone                event.ID = 1006
	FoundUpdateFiles           event.ID = 1007
	DownloadProgressUpdate     event.ID = 1008
	InitializeAssetsFinish     event.ID = 1009

	// Host
	ConfigReloaded event.ID = 1050
	ScriptError    event.ID = 1051
)

// Id ranges.
const (
	// FrameworkIDMin is the first framework event id.
	FrameworkIDMin event.ID = 1001

	// FrameworkIDMax is the last framework event id.
	FrameworkIDMax event.ID = 1100

	// UserIDBase is the first id available to applications.
	UserIDBase event.ID = 10000
)

var names = map[event.ID]string{
	UpdatePackageCallback:      "update_package_callback",
	InitializeFailed:           "initialize_failed",
	PackageVersionUpdateFailed: "package_version_update_failed",
	PatchManifestUpdateFailed:  "patch_manifest_update_failed",
	WebFileDownloadFailed:      "web_file_download_failed",
	UpdaterDone:                "updater_done",
	FoundUpdateFiles:           "found_update_files",
	DownloadProgressUpdate:     "download_progress_update",
	InitializeAssetsFinish:     "initialize_assets_finish",
	ConfigReloaded:             "config_reloaded",
	ScriptError:                "script_error",
}

// Name returns a stable, label-safe name for id. Ids without a registered
// name are rendered as "framework_<id>" or "user_<id>" depending on range.
func Name(id event.ID) string {
	if n, ok := names[id]; ok {
		return n
	}
	switch {
	case IsFramework(id):
		return fmt.Sprintf("framework_%d", int(id))
	case id >= UserIDBase:
		return fmt.Sprintf("user_%d", int(id))
	}
	return fmt.Sprintf("event_%d", int(id))
}

// IsFramework reports whether id lies in the framework block.
func IsFramework(id event.ID) bool {
	return id >= FrameworkIDMin && id <= FrameworkIDMax
}

// Known returns every named framework id in ascending order.
func Known() []event.ID {
	return []event.ID{
		UpdatePackageCallback,
		InitializeFailed,
		PackageVersionUpdateFailed,
		PatchManifestUpdateFailed,
		WebFileDownloadFailed,
		UpdaterDone,
		FoundUpdateFiles,
		DownloadProgressUpdate,
		InitializeAssetsFinish,
		ConfigReloaded,
		ScriptError,
	}
}
