package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"riotlink/internal/riotapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("RIOT_API_KEY", "RGAPI-key")
}

// godotenv never overrides a variable that is set, even to ""
func unset(t *testing.T, key string) {
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "./data/accounts.db", cfg.DatabasePath)
	assert.Equal(t, "roles.yaml", cfg.RolesFile)
	assert.Equal(t, 3*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, time.Minute, cfg.RefreshTick)
	assert.Equal(t, 500*time.Millisecond, cfg.RefreshDelay)
	assert.Equal(t, 5*time.Minute, cfg.VerificationTTL)
	assert.Len(t, cfg.IconIds, 29)
	assert.Equal(t, ":8080", cfg.HealthAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromFile(t *testing.T) {
	for _, key := range []string{"DISCORD_TOKEN", "RIOT_API_KEY", "REFRESH_INTERVAL", "VERIFICATION_ICON_IDS"} {
		unset(t, key)
	}
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "DISCORD_TOKEN=from-file\nRIOT_API_KEY=RGAPI-file\nREFRESH_INTERVAL=12h\nVERIFICATION_ICON_IDS=7, 9\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.DiscordToken)
	assert.Equal(t, 12*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, []int{7, 9}, cfg.IconIds)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing token", env: map[string]string{"DISCORD_TOKEN": ""}},
		{name: "missing key", env: map[string]string{"RIOT_API_KEY": ""}},
		{name: "bad duration", env: map[string]string{"REFRESH_DELAY": "soon"}},
		{name: "zero interval", env: map[string]string{"REFRESH_INTERVAL": "0s"}},
		{name: "bad icons", env: map[string]string{"VERIFICATION_ICON_IDS": "1,two"}},
		{name: "negative icon", env: map[string]string{"VERIFICATION_ICON_IDS": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

const rolesFile = `
regions:
  EUW:
    role_id: "100"
  kr:
    role_id: "101"
    platform: kr-proxy
  PBE:
    platform: pbe1
    regional: americas
    role_id: "102"
solo_roles:
  GOLD: "200"
  iron: "201"
flex_roles:
  GOLD: "300"
duo_channels:
  "900": GOLD
  "901": unranked
`

func TestParseRoles(t *testing.T) {
	file, err := ParseRoles([]byte(rolesFile))
	require.NoError(t, err)

	table := file.Table()
	assert.Equal(t, map[riotapi.Region]string{"EUW": "100", "KR": "101", "PBE": "102"}, table.Regions)
	assert.Equal(t, map[riotapi.Tier]string{riotapi.Gold: "200", riotapi.Iron: "201"}, table.Solo)
	assert.Equal(t, map[riotapi.Tier]string{riotapi.Gold: "300"}, table.Flex)

	routes := file.Routes()
	assert.Equal(t, riotapi.Route{Platform: "euw1", Regional: "europe"}, routes["EUW"])
	assert.Equal(t, riotapi.Route{Platform: "kr-proxy", Regional: "asia"}, routes["KR"])
	assert.Equal(t, riotapi.Route{Platform: "pbe1", Regional: "americas"}, routes["PBE"])
	assert.Contains(t, routes, riotapi.Region("NA"), "built-in routes are kept")

	assert.Equal(t, []riotapi.Region{"EUW", "KR", "PBE"}, file.RegionList())
	assert.Equal(t, map[string]riotapi.Tier{"900": riotapi.Gold, "901": riotapi.Unranked}, file.Duo())
}

func TestParseRolesErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not yaml", data: "regions: [unclosed"},
		{name: "unknown region without hosts", data: "regions:\n  MOON:\n    role_id: \"1\"\n"},
		{name: "unknown solo tier", data: "solo_roles:\n  WOOD: \"1\"\n"},
		{name: "unknown duo tier", data: "duo_channels:\n  \"1\": WOOD\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoles([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestRegionsDefaultToBuiltIn(t *testing.T) {
	file, err := ParseRoles([]byte("solo_roles:\n  GOLD: \"1\"\n"))
	require.NoError(t, err)
	assert.Len(t, file.RegionList(), len(riotapi.DefaultRoutes))
}
