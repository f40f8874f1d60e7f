package server

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
)

const (
	channelQueryParam    = "channel"
	channelHeader        = "X-Scene-Channel"
	channelDefaultEnvVar = "SCENE_CHANNEL_DEFAULT"

	channelSourceEnv         = "env"
	channelSourceHardDefault = "hard_default"
)

// channelResolution names both the winning channel and where it came from,
// so hud-mode contracts can explain the selection.
type channelResolution struct {
	Channel   types.Channel `json:"channel"`
	SourceRef string        `json:"channel_source_ref"`
}

type channelResolver struct {
	params ParamStore
}

func newChannelResolver(params ParamStore) *channelResolver {
	return &channelResolver{params: params}
}

// resolve walks the selector precedence chain top down. Levels holding an
// unparseable channel value are skipped, not fatal.
func (cr *channelResolver) resolve(ctx context.Context, r *http.Request, companyID string, actorID string) (channelResolution, error) {
	if r != nil {
		if channel, ok := types.ParseChannel(r.URL.Query().Get(channelQueryParam)); ok {
			return channelResolution{Channel: channel, SourceRef: "param=" + channelQueryParam}, nil
		}
		if channel, ok := types.ParseChannel(r.Header.Get(channelHeader)); ok {
			return channelResolution{Channel: channel, SourceRef: "header=" + strings.ToLower(channelHeader)}, nil
		}
	}

	if actorID = strings.TrimSpace(actorID); actorID != "" {
		key := paramKeyChannelUser(actorID)
		resolution, ok, err := cr.fromParam(ctx, companyID, key, "param="+key)
		if err != nil {
			return channelResolution{}, err
		}
		if ok {
			return resolution, nil
		}
	}

	if companyID = strings.TrimSpace(companyID); companyID != "" {
		key := paramKeyChannelCompany(companyID)
		resolution, ok, err := cr.fromParam(ctx, companyID, key, "company_id="+companyID)
		if err != nil {
			return channelResolution{}, err
		}
		if ok {
			return resolution, nil
		}
	}

	resolution, ok, err := cr.fromParam(ctx, companyID, paramKeyChannelDefault, "param="+paramKeyChannelDefault)
	if err != nil {
		return channelResolution{}, err
	}
	if ok {
		return resolution, nil
	}

	if channel, ok := types.ParseChannel(os.Getenv(channelDefaultEnvVar)); ok {
		return channelResolution{Channel: channel, SourceRef: channelSourceEnv}, nil
	}

	return channelResolution{Channel: types.ChannelStable, SourceRef: channelSourceHardDefault}, nil
}

func (cr *channelResolver) fromParam(ctx context.Context, companyID string, key string, sourceRef string) (channelResolution, bool, error) {
	value, ok, err := cr.params.Get(ctx, companyID, key)
	if err != nil {
		return channelResolution{}, false, err
	}
	if !ok {
		return channelResolution{}, false, nil
	}
	channel, ok := types.ParseChannel(value)
	if !ok {
		return channelResolution{}, false, nil
	}
	return channelResolution{Channel: channel, SourceRef: sourceRef}, true, nil
}
