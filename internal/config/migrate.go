package config

import "fmt"

// migrate upgrades a config from its version to CurrentVersion. Files
// written before the version key existed decode as version 0.
// Returns an error if the config version is newer than this binary supports.
func migrate(cfg *Config) error {
	if cfg.Version == CurrentVersion {
		return nil
	}
	if cfg.Version > CurrentVersion {
		return fmt.Errorf(
			"%w: config version %d is newer than supported version %d (upgrade swarmwatch)",
			ErrInvalid, cfg.Version, CurrentVersion,
		)
	}
	if cfg.Version < 0 {
		return fmt.Errorf("%w: config version %d is invalid", ErrInvalid, cfg.Version)
	}

	for cfg.Version < CurrentVersion {
		fn, ok := migrations[cfg.Version]
		if !ok {
			return fmt.Errorf("%w: no migration path from version %d", ErrInvalid, cfg.Version)
		}
		if err := fn(cfg); err != nil {
			return fmt.Errorf("migrating config from v%d: %w", cfg.Version, err)
		}
	}
	return nil
}

// migrations maps each version to the function that migrates it to the next version.
// The migration function must increment cfg.Version after a successful migration.
var migrations = map[int]func(*Config) error{
	0: migrateV0ToV1,
}

// migrateV0ToV1 stamps unversioned files. Missing keys already hold defaults.
func migrateV0ToV1(cfg *Config) error { //nolint:unparam // signature must match migrations map type
	cfg.Version = 1
	return nil
}
