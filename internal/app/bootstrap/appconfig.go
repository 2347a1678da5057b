// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS); AppConfig is everything specific to ChoreoLab. The
// struct is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer-token auth
	JWTSecret string        // HMAC signing secret (must be strong in production)
	JWTTTL    time.Duration // token lifetime

	// 3D model file storage
	ModelsDir string // local directory uploaded .glb files are written to
	ModelsURL string // URL prefix the files are served under

	// Base URL the service is reachable at (used in logs and responses)
	BaseURL string
}
