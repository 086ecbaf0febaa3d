//go:build !windows

package metadata

// unavailableProvider stands in for the Windows shell on other hosts.
type unavailableProvider struct{}

// NewShellProvider returns a provider that is never available outside Windows.
func NewShellProvider() PlatformProvider {
	return unavailableProvider{}
}

func (unavailableProvider) Available() bool {
	return false
}

func (unavailableProvider) TryGetDuration(string) (int, bool) {
	return 0, false
}
