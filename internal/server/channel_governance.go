package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
	"github.com/hardhat-labs/scenecontract/pkg/fingerprint"
)

const (
	channelReasonRequiredCode = "CHANNEL_REASON_REQUIRED"
	channelInvalidCode        = "CHANNEL_INVALID"
	channelPinMissingCode     = "CHANNEL_PIN_MISSING"
	channelUnknownCode        = "CHANNEL_SNAPSHOT_MISSING"

	eventChannelSwitch   = "scene.channel.switch"
	eventChannelPin      = "scene.channel.pin"
	eventChannelRollback = "scene.channel.rollback"
	eventContractExport  = "scene.contract.export"
	eventSnapshotUpdate  = "scene.snapshot.update"

	governanceActionSwitch   = "switch_channel"
	governanceActionPin      = "pin_stable"
	governanceActionRollback = "rollback_stable"
	governanceActionExport   = "export_contract"
	governanceActionUpdate   = "update_snapshot"
)

// governanceResult is the uniform verb response.
type governanceResult struct {
	Action      string `json:"action"`
	FromChannel string `json:"from_channel"`
	ToChannel   string `json:"to_channel"`
	TraceID     string `json:"trace_id"`
}

// validateGovernanceReason rejects empty and placeholder reasons; every
// governance verb requires a substantive operator-supplied reason.
func validateGovernanceReason(reason string) error {
	reason = strings.TrimSpace(reason)
	switch strings.ToLower(reason) {
	case "", "-", "n/a", "test":
		return errors.New(channelReasonRequiredCode)
	}
	if len(reason) < 4 {
		return errors.New(channelReasonRequiredCode)
	}
	return nil
}

type channelGovernor struct {
	params   ParamStore
	registry *snapshotRegistry
	resolver *channelResolver
	audit    *auditRecorder
	logger   *zap.Logger
	now      func() time.Time
}

func newChannelGovernor(params ParamStore, registry *snapshotRegistry, audit *auditRecorder, logger *zap.Logger) *channelGovernor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &channelGovernor{
		params:   params,
		registry: registry,
		resolver: newChannelResolver(params),
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

func (g *channelGovernor) switchChannel(ctx context.Context, company Company, actorID string, target string, reason string, traceID string) (governanceResult, error) {
	if err := validateGovernanceReason(reason); err != nil {
		return governanceResult{}, err
	}
	targetChannel, ok := types.ParseChannel(target)
	if !ok {
		return governanceResult{}, errors.New(channelInvalidCode)
	}
	if _, ok := g.registry.snapshot(targetChannel); !ok {
		return governanceResult{}, errors.New(channelUnknownCode)
	}

	from, err := g.resolver.resolve(ctx, nil, company.ID, "")
	if err != nil {
		return governanceResult{}, err
	}
	if err := g.params.Set(ctx, company.ID, paramKeyChannelCompany(company.ID), string(targetChannel)); err != nil {
		return governanceResult{}, err
	}

	result := governanceResult{
		Action:      governanceActionSwitch,
		FromChannel: string(from.Channel),
		ToChannel:   string(targetChannel),
		TraceID:     traceID,
	}
	g.appendAudit(ctx, eventChannelSwitch, company, actorID, traceID, reason,
		map[string]any{"channel": string(from.Channel)},
		map[string]any{"channel": string(targetChannel)},
		result,
	)
	return result, nil
}

// pinStable freezes the current stable snapshot into the parameter store.
// Stable resolution serves the frozen copy until rollback_stable.
func (g *channelGovernor) pinStable(ctx context.Context, company Company, actorID string, reason string, traceID string) (governanceResult, error) {
	if err := validateGovernanceReason(reason); err != nil {
		return governanceResult{}, err
	}
	snapshot, ok := g.registry.snapshot(types.ChannelStable)
	if !ok {
		return governanceResult{}, errors.New(channelUnknownCode)
	}
	blob, err := json.Marshal(snapshot)
	if err != nil {
		return governanceResult{}, err
	}
	if err := g.params.Set(ctx, company.ID, paramKeyChannelPin, string(blob)); err != nil {
		return governanceResult{}, err
	}

	result := governanceResult{
		Action:      governanceActionPin,
		FromChannel: string(types.ChannelStable),
		ToChannel:   string(types.ChannelStable),
		TraceID:     traceID,
	}
	g.appendAudit(ctx, eventChannelPin, company, actorID, traceID, reason,
		nil,
		map[string]any{"pinned_ref": snapshot.Ref, "pinned_version": snapshot.Version},
		result,
	)
	return result, nil
}

func (g *channelGovernor) rollbackStable(ctx context.Context, company Company, actorID string, reason string, traceID string) (governanceResult, error) {
	if err := validateGovernanceReason(reason); err != nil {
		return governanceResult{}, err
	}
	pinned, ok, err := g.pinnedStable(ctx, company.ID)
	if err != nil {
		return governanceResult{}, err
	}
	if !ok {
		return governanceResult{}, errors.New(channelPinMissingCode)
	}
	if err := g.params.Delete(ctx, company.ID, paramKeyChannelPin); err != nil {
		return governanceResult{}, err
	}

	result := governanceResult{
		Action:      governanceActionRollback,
		FromChannel: string(types.ChannelStable),
		ToChannel:   string(types.ChannelStable),
		TraceID:     traceID,
	}
	g.appendAudit(ctx, eventChannelRollback, company, actorID, traceID, reason,
		map[string]any{"pinned_ref": pinned.Ref, "pinned_version": pinned.Version},
		nil,
		result,
	)
	return result, nil
}

func (g *channelGovernor) exportContract(ctx context.Context, company Company, actorID string, channelRaw string, reason string, traceID string) (types.ContractSnapshot, governanceResult, error) {
	if err := validateGovernanceReason(reason); err != nil {
		return types.ContractSnapshot{}, governanceResult{}, err
	}
	channel, ok := types.ParseChannel(channelRaw)
	if !ok {
		return types.ContractSnapshot{}, governanceResult{}, errors.New(channelInvalidCode)
	}
	snapshot, ok, err := g.effectiveSnapshot(ctx, company.ID, channel)
	if err != nil {
		return types.ContractSnapshot{}, governanceResult{}, err
	}
	if !ok {
		return types.ContractSnapshot{}, governanceResult{}, errors.New(channelUnknownCode)
	}

	result := governanceResult{
		Action:      governanceActionExport,
		FromChannel: string(channel),
		ToChannel:   string(channel),
		TraceID:     traceID,
	}
	g.appendAudit(ctx, eventContractExport, company, actorID, traceID, reason,
		nil,
		map[string]any{"ref": snapshot.Ref, "version": snapshot.Version},
		result,
	)
	return snapshot, result, nil
}

func (g *channelGovernor) updateSnapshot(ctx context.Context, company Company, actorID string, snapshot types.ContractSnapshot, reason string, traceID string) (governanceResult, error) {
	if err := validateGovernanceReason(reason); err != nil {
		return governanceResult{}, err
	}
	if _, ok := types.ParseChannel(string(snapshot.Channel)); !ok {
		return governanceResult{}, errors.New(channelInvalidCode)
	}
	previous, err := g.registry.replace(snapshot)
	if err != nil {
		return governanceResult{}, err
	}

	result := governanceResult{
		Action:      governanceActionUpdate,
		FromChannel: string(snapshot.Channel),
		ToChannel:   string(snapshot.Channel),
		TraceID:     traceID,
	}
	g.appendAudit(ctx, eventSnapshotUpdate, company, actorID, traceID, reason,
		map[string]any{"ref": previous.Ref, "version": previous.Version},
		map[string]any{"ref": snapshot.Ref, "version": snapshot.Version},
		result,
	)
	return result, nil
}

// effectiveSnapshot honors a stable pin: while a pin exists, stable serves
// the frozen copy regardless of later publishes.
func (g *channelGovernor) effectiveSnapshot(ctx context.Context, companyID string, channel types.Channel) (types.ContractSnapshot, bool, error) {
	if channel == types.ChannelStable {
		pinned, ok, err := g.pinnedStable(ctx, companyID)
		if err != nil {
			return types.ContractSnapshot{}, false, err
		}
		if ok {
			return pinned, true, nil
		}
	}
	snapshot, ok := g.registry.snapshot(channel)
	return snapshot, ok, nil
}

func (g *channelGovernor) stableIsPinned(ctx context.Context, companyID string) bool {
	_, ok, err := g.pinnedStable(ctx, companyID)
	return err == nil && ok
}

func (g *channelGovernor) pinnedStable(ctx context.Context, companyID string) (types.ContractSnapshot, bool, error) {
	blob, ok, err := g.params.Get(ctx, companyID, paramKeyChannelPin)
	if err != nil || !ok {
		return types.ContractSnapshot{}, false, err
	}
	var snapshot types.ContractSnapshot
	if err := json.Unmarshal([]byte(blob), &snapshot); err != nil {
		g.logger.Warn("stable pin unreadable, ignoring", zap.String("company_id", companyID), zap.Error(err))
		return types.ContractSnapshot{}, false, nil
	}
	return snapshot, true, nil
}

func (g *channelGovernor) appendAudit(ctx context.Context, eventCode string, company Company, actorID string, traceID string, reason string, before map[string]any, after map[string]any, result governanceResult) {
	entry := AuditEntry{
		EventCode:      eventCode,
		IdempotencyKey: fingerprint.HashFields(company.ID, eventCode, result.FromChannel, result.ToChannel),
		CompanyID:      company.ID,
		ActorID:        actorID,
		TraceID:        traceID,
		RecordedAt:     g.now().UTC(),
	}
	if before != nil {
		before["reason"] = reason
		entry.Before, _ = json.Marshal(before)
	}
	if after == nil {
		after = map[string]any{}
	}
	after["reason"] = reason
	entry.After, _ = json.Marshal(after)
	entry.Result, _ = json.Marshal(result)
	g.audit.record(ctx, entry)
}
