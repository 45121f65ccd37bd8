package deps

import (
	"time"

	"github.com/MrSnakeDoc/patientshare/internal/audit"
	"github.com/MrSnakeDoc/patientshare/internal/logger"
	"github.com/MrSnakeDoc/patientshare/internal/ratelimit"
	"github.com/MrSnakeDoc/patientshare/internal/share"
	"github.com/MrSnakeDoc/patientshare/internal/signer"
	"github.com/MrSnakeDoc/patientshare/internal/store"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts []string // Host headers allowed to reach admin endpoints
	AllowedCIDRS []string // IPs allowed to reach admin endpoints (readyz, metrics, audit, signing)
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins  []string // origins allowed on the retrieval endpoint

	Shares          *share.Service    // ingestion and retrieval protocols
	Store           store.Store       // share store, pinged by readyz
	Audit           audit.Recorder    // webhook attempt log
	Signer          *signer.Signer    // used by the signing helper endpoint
	RateLimitPoints int               // advertised in X-RateLimit-Limit
	MaxBodyBytes    int64             // webhook body cap
	SigningEndpoint bool              // expose POST /api/generate-signature
	Backends        map[string]string // component -> backend name, reported by /api/infra
	AdminLimiter    ratelimit.Limiter // throttles the admin endpoints
}
