// Package config handles loading and validating LanGuard Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (LANGUARD_SECTION_KEY)
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Router credentials should be set via LANGUARD_ROUTER_USERNAME and
//     LANGUARD_ROUTER_PASSWORD rather than committed to the YAML file
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Scan.CIDR)
package config
