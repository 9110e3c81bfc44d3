package device

// FakeStore is an in-memory Store for tests.
type FakeStore struct {
	Cfg       Config
	SaveErr   error
	LoadErr   error
	SaveCalls int
}

// NewFakeStore creates a FakeStore seeded with the given config.
func NewFakeStore(cfg Config) *FakeStore {
	return &FakeStore{Cfg: cfg}
}

// Load returns the seeded config, or defaults when unset and invalid.
func (f *FakeStore) Load() (Config, error) {
	if f.LoadErr != nil {
		return Config{}, f.LoadErr
	}
	if f.Cfg.Validate() != nil {
		f.Cfg = Default()
	}
	return f.Cfg, nil
}

// Save validates and records the config.
func (f *FakeStore) Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.Cfg = cfg
	f.SaveCalls++
	return nil
}
