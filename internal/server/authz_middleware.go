package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hardhat-labs/scenecontract/internal/routing"
	"github.com/hardhat-labs/scenecontract/pkg/authz"
)

func loadAuthorizer() (*authz.Authorizer, error) {
	modelPath := os.Getenv("AUTHZ_MODEL_PATH")
	if modelPath == "" {
		p, err := defaultAuthzModelPath()
		if err != nil {
			return nil, err
		}
		modelPath = p
	}

	policyPath := os.Getenv("AUTHZ_POLICY_PATH")
	if policyPath == "" {
		p, err := defaultAuthzPolicyPath()
		if err != nil {
			return nil, err
		}
		policyPath = p
	}

	mode, err := authz.ModeFromEnv()
	if err != nil {
		return nil, err
	}

	return authz.NewAuthorizer(modelPath, policyPath, mode)
}

func defaultAuthzModelPath() (string, error) {
	path := "config/access/model.conf"
	for i := 0; i < 8; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: authz model not found")
}

func defaultAuthzPolicyPath() (string, error) {
	path := "config/access/policy.csv"
	for i := 0; i < 8; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: authz policy not found")
}

type authorizer interface {
	Authorize(subject string, domain string, object string, action string) (allowed bool, enforced bool, err error)
}

func withAuthz(a authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		company, ok := currentCompany(r.Context())
		if !ok {
			routing.WriteError(w, r, http.StatusInternalServerError, "company_missing", "company missing")
			return
		}

		subject := authz.SubjectFromRoleSlug(currentRoleSlug(r.Context()))
		domain := authz.DomainFromCompanyID(company.ID)

		object, action, shouldCheck := authzRequirementForRoute(r)
		if !shouldCheck {
			next.ServeHTTP(w, r)
			return
		}

		allowed, enforced, err := a.Authorize(subject, domain, object, action)
		if err != nil {
			routing.WriteError(w, r, http.StatusInternalServerError, "authz_error", "authz error")
			return
		}
		if enforced && !allowed {
			routing.WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authzRequirementForRoute maps each route to its casbin object and action.
// Hud-mode contracts require debug: the provenance block exposes registry
// internals that end users never see.
func authzRequirementForRoute(r *http.Request) (object string, action string, ok bool) {
	switch r.URL.Path {
	case "/api/ui/contract":
		if r.Method != http.MethodGet {
			return "", "", false
		}
		if mode, _ := parseContractMode(r.URL.Query().Get("mode")); mode == contractModeHUD {
			return authz.ObjectSceneContract, authz.ActionDebug, true
		}
		return authz.ObjectSceneContract, authz.ActionRead, true
	case "/api/ui/capability":
		if r.Method == http.MethodGet {
			return authz.ObjectSceneCapability, authz.ActionRead, true
		}
		return "", "", false
	case "/api/ui/action/resolve":
		if r.Method == http.MethodPost {
			return authz.ObjectSceneContract, authz.ActionRead, true
		}
		return "", "", false
	case "/api/ui/view/normalize":
		if r.Method == http.MethodPost {
			return authz.ObjectSceneContract, authz.ActionRead, true
		}
		return "", "", false
	case "/internal/governance/channel":
		if r.Method == http.MethodPost {
			return authz.ObjectSceneChannel, authz.ActionAdmin, true
		}
		return "", "", false
	case "/internal/scene/visibility":
		if r.Method == http.MethodGet {
			return authz.ObjectSceneVisibility, authz.ActionDebug, true
		}
		return "", "", false
	default:
		return "", "", false
	}
}
