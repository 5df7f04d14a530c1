package smartapp

// InstallState is the installation state of the bridge, recomputed from
// observable facts rather than tracked as a mutable flag.
type InstallState string

const (
	// StateUninstalled: no credentials present.
	StateUninstalled InstallState = "uninstalled"

	// StateInstalledNoDevices: credentials present but nothing to
	// subscribe to yet (empty registration set, or first sync pending).
	StateInstalledNoDevices InstallState = "installed_no_devices"

	// StateInstalledSynced: credentials present, devices registered, and
	// a reconciliation pass has completed.
	StateInstalledSynced InstallState = "installed_synced"
)

// State derives the current installation state.
func (h *Handler) State() InstallState {
	if !h.creds.Installed() {
		return StateUninstalled
	}
	if h.dispatcher.Count() == 0 || !h.synced.Load() {
		return StateInstalledNoDevices
	}
	return StateInstalledSynced
}
