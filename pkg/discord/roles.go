// Package discord adapts the Discord REST and gateway APIs to the role
// directory and command surfaces the gate needs.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/dbfutures/rolegate/pkg/entitlement"
)

// RoleAPI is the subset of the discordgo session the role directory uses.
type RoleAPI interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// Roles implements entitlement.RoleService over the Discord REST API.
// Role add/remove are idempotent on Discord's side: adding a held role or
// removing an absent one returns success.
type Roles struct {
	api    RoleAPI
	logger entitlement.Logger
}

// NewRoles creates a role directory backed by api, typically a
// *discordgo.Session.
func NewRoles(api RoleAPI, logger entitlement.Logger) *Roles {
	if logger == nil {
		logger = &entitlement.NoopLogger{}
	}
	return &Roles{api: api, logger: logger}
}

func (r *Roles) LookupMember(ctx context.Context, guildID, memberID string) error {
	if _, err := r.api.GuildMember(guildID, memberID, discordgo.WithContext(ctx)); err != nil {
		if isUnknownMember(err) {
			return fmt.Errorf("%w: %s", entitlement.ErrMemberNotFound, memberID)
		}
		return fmt.Errorf("fetch member %s: %w", memberID, err)
	}
	return nil
}

func (r *Roles) AddRole(ctx context.Context, guildID, memberID, roleID string) error {
	if err := r.api.GuildMemberRoleAdd(guildID, memberID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add role %s to %s: %w", roleID, memberID, err)
	}
	r.logger.Info("role granted",
		entitlement.Field{Key: "member", Value: memberID},
		entitlement.Field{Key: "role", Value: roleID},
	)
	return nil
}

func (r *Roles) RemoveRole(ctx context.Context, guildID, memberID, roleID string) error {
	if err := r.api.GuildMemberRoleRemove(guildID, memberID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("remove role %s from %s: %w", roleID, memberID, err)
	}
	r.logger.Info("role revoked",
		entitlement.Field{Key: "member", Value: memberID},
		entitlement.Field{Key: "role", Value: roleID},
	)
	return nil
}

func isUnknownMember(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
			return true
		}
	}
	return rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound
}
