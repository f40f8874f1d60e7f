package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hardhat-labs/scenecontract/internal/routing"
	"github.com/hardhat-labs/scenecontract/modules/scene/services"
)

// HandlerOptions lets callers inject collaborators; every nil field gets a
// production default (pg stores when a pool is available, memory otherwise).
type HandlerOptions struct {
	Logger     *zap.Logger
	Pool       *pgxpool.Pool
	Params     ParamStore
	Audit      AuditStore
	Counters   CounterStore
	Registry   *snapshotRegistry
	Authorizer authorizer
	Classifier *routing.Classifier
}

func NewHandler(opts HandlerOptions) (http.Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Params == nil {
		if opts.Pool != nil {
			opts.Params = newPGParamStore(opts.Pool)
		} else {
			opts.Params = newMemoryParamStore()
		}
	}
	if opts.Audit == nil {
		if opts.Pool != nil {
			opts.Audit = newPGAuditStore(opts.Pool)
		} else {
			opts.Audit = newMemoryAuditStore()
		}
	}
	if opts.Counters == nil {
		if opts.Pool != nil {
			opts.Counters = newPGCounterStore(opts.Pool)
		} else {
			opts.Counters = newMemoryCounterStore()
		}
	}
	if opts.Registry == nil {
		path, err := defaultRegistryPath()
		if err != nil {
			return nil, err
		}
		registry, err := loadSnapshotRegistry(path)
		if err != nil {
			return nil, err
		}
		opts.Registry = registry
	}
	if opts.Authorizer == nil {
		a, err := loadAuthorizer()
		if err != nil {
			return nil, err
		}
		opts.Authorizer = a
	}
	if opts.Classifier == nil {
		path, err := defaultAllowlistPath()
		if err != nil {
			return nil, err
		}
		allowlist, err := routing.LoadAllowlist(path)
		if err != nil {
			return nil, err
		}
		classifier, err := routing.NewClassifier(allowlist, "server")
		if err != nil {
			return nil, err
		}
		opts.Classifier = classifier
	}

	recorder := newAuditRecorder(opts.Audit, logger)
	governor := newChannelGovernor(opts.Params, opts.Registry, recorder, logger)
	evaluator := services.NewAccessEvaluator(opts.Registry.lifecycleMatrix())

	api := &API{
		logger:    logger,
		params:    opts.Params,
		counters:  opts.Counters,
		registry:  opts.Registry,
		governor:  governor,
		idem:      newIdempotencyGovernor(opts.Audit, recorder),
		resolver:  newChannelResolver(opts.Params),
		evaluator: evaluator,
		assembler: services.NewSceneAssembler(evaluator),
		cache:     newContractCache(),
	}

	router := routing.NewRouter(opts.Classifier, logger)
	router.HandleFunc(http.MethodGet, "/healthz", handleHealthz)
	router.HandleFunc(http.MethodGet, "/health", handleHealthz)
	router.HandleFunc(http.MethodGet, "/api/ui/contract", api.handleContractAPI)
	router.HandleFunc(http.MethodGet, "/api/ui/capability", api.handleCapabilityAPI)
	router.HandleFunc(http.MethodPost, "/api/ui/action/resolve", api.handleActionResolveAPI)
	router.HandleFunc(http.MethodPost, "/api/ui/view/normalize", api.handleViewNormalizeAPI)
	router.HandleFunc(http.MethodPost, "/internal/governance/channel", api.handleChannelGovernanceAPI)
	router.HandleFunc(http.MethodGet, "/internal/scene/visibility", api.handleVisibilityAPI)

	var handler http.Handler = router
	handler = withAuthz(opts.Authorizer, handler)
	handler = withIdentity(handler)
	handler = withRequestLog(logger, handler)
	return handler, nil
}

func defaultAllowlistPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv("ALLOWLIST_PATH")); p != "" {
		return p, nil
	}
	path := "config/allowlist.yaml"
	for i := 0; i < 8; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: allowlist not found")
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(`{"ok":true}`))
}

// withIdentity seeds company, actor, and role from gateway headers. Requests
// without a company header fall into the demo company so local serving works
// out of the box.
func withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		companyID := strings.TrimSpace(r.Header.Get(headerCompanyID))
		if companyID == "" {
			companyID = "demo"
		}
		company := Company{ID: companyID}

		ctx := withCompany(r.Context(), company)
		ctx = withActor(ctx, actorFromRequest(r, company))
		ctx = withRoleSlug(ctx, r.Header.Get(headerActorRole))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func withRequestLog(logger *zap.Logger, next http.Handler) http.Handler {
	if logger == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		logger.Info("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("trace_id", routing.TraceIDFromRequest(r)),
		)
	})
}

// Pool dials the configured database. Callers that can serve memory-only
// pass a nil pool to NewHandler instead.
func Pool(ctx context.Context) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, dbDSNFromEnv())
}
