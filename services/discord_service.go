package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/config"
)

// DiscordService is the OAuth and guild-lookup client. Only the narrow
// surface the authorization layer needs: token exchange, identity, the
// user's guilds and their role ids inside one guild.
type DiscordService struct {
	Client       *http.Client
	APIBase      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func NewDiscordService() *DiscordService {
	return &DiscordService{
		Client:       &http.Client{Timeout: 10 * time.Second},
		APIBase:      config.DiscordAPIBase,
		ClientID:     config.DiscordClientID,
		ClientSecret: config.DiscordClientSecret,
		RedirectURL:  config.DiscordRedirectURL,
	}
}

type DiscordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type DiscordGuild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// AuthorizeURL builds the OAuth consent URL the login handler redirects to.
func (s *DiscordService) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", s.ClientID)
	params.Set("redirect_uri", s.RedirectURL)
	params.Set("response_type", "code")
	params.Set("scope", "identify guilds guilds.members.read")
	params.Set("state", state)
	return "https://discord.com/oauth2/authorize?" + params.Encode()
}

// ExchangeCode trades an OAuth authorization code for an access token.
func (s *DiscordService) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", s.ClientID)
	form.Set("client_secret", s.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", s.RedirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.APIBase+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("discord token exchange returned status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	return payload.AccessToken, nil
}

// FetchUser returns the identity of the token's owner.
func (s *DiscordService) FetchUser(ctx context.Context, accessToken string) (*DiscordUser, error) {
	var user DiscordUser
	if err := s.getJSON(ctx, accessToken, "/users/@me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FetchGuilds returns the guilds the token's owner belongs to.
func (s *DiscordService) FetchGuilds(ctx context.Context, accessToken string) ([]DiscordGuild, error) {
	var guilds []DiscordGuild
	if err := s.getJSON(ctx, accessToken, "/users/@me/guilds", &guilds); err != nil {
		return nil, err
	}
	return guilds, nil
}

// FetchMemberRoles returns the user's Discord role ids inside one guild.
func (s *DiscordService) FetchMemberRoles(ctx context.Context, accessToken, guildID string) ([]string, error) {
	var member struct {
		Roles []string `json:"roles"`
	}
	if err := s.getJSON(ctx, accessToken, "/users/@me/guilds/"+guildID+"/member", &member); err != nil {
		return nil, err
	}
	return member.Roles, nil
}

func (s *DiscordService) getJSON(ctx context.Context, accessToken, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.APIBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discord API %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
