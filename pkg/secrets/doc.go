// Package secrets loads credentials from files.
//
// The collector API key can be supplied through api_key_file instead of
// api_key. The file is read at startup and, while the process runs, reloaded
// whenever it is rewritten or its mount is swapped, so a rotated key takes
// effect without a restart:
//
//	key, err := secrets.NewFileSecret(cfg.APIKeyFile, true, logger)
//	if err != nil {
//	    return err
//	}
//	defer key.Close()
//
//	opts := transport.OptionsFromConfig(cfg)
//	opts.APIKeyFunc = key.Value
package secrets
