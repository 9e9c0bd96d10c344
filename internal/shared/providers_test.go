package shared_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"play_grabar/internal/shared"
)

func writeYAML(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, shared.ConfigFileName), []byte(content), 0o644))
}

func TestResolver_EnvBeatsFileBeatsDefault(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "http_addr: \":7000\"\npage_size: 25\n")

	yp, err := shared.LoadYAML(shared.ConfigFileName, dir)
	require.NoError(t, err)
	r := shared.NewResolver(shared.EnvProvider{}, yp)

	// file beats default
	require.Equal(t, ":7000", r.String("HTTP_ADDR", ":8090"))
	require.Equal(t, 25, r.Int("PAGE_SIZE", 100))

	// env beats file
	t.Setenv("HTTP_ADDR", ":9999")
	require.Equal(t, ":9999", r.String("HTTP_ADDR", ":8090"))

	// neither set: default
	require.Equal(t, "prod", r.String("APP_ENV", "prod"))
}

func TestResolver_EmptyEnvValueIsPresent(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "redis_password: hunter2\n")

	yp, err := shared.LoadYAML(shared.ConfigFileName, dir)
	require.NoError(t, err)
	r := shared.NewResolver(shared.EnvProvider{}, yp)

	// an explicitly empty env var overrides the file value; present and
	// empty is not the same as missing
	t.Setenv("REDIS_PASSWORD", "")
	require.Equal(t, "", r.String("REDIS_PASSWORD", "default"))
}

func TestResolver_List(t *testing.T) {
	yp, err := shared.LoadYAML(shared.ConfigFileName, t.TempDir())
	require.NoError(t, err)
	r := shared.NewResolver(shared.EnvProvider{}, yp)

	t.Setenv("GRAB_LANGS", "en, uk ,,tt")
	require.Equal(t, []string{"en", "uk", "tt"}, r.List("GRAB_LANGS", nil))

	require.Equal(t, []string{"en"}, r.List("OTHER_LANGS", []string{"en"}))
}

func TestLoadYAML_SearchOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeYAML(t, first, "app_env: staging\n")
	writeYAML(t, second, "app_env: dev\n")

	yp, err := shared.LoadYAML(shared.ConfigFileName, first, second)
	require.NoError(t, err)
	v, ok := yp.Lookup("APP_ENV")
	require.True(t, ok)
	require.Equal(t, "staging", v)
}

func TestLoadYAML_MissingFileIsNotAnError(t *testing.T) {
	yp, err := shared.LoadYAML(shared.ConfigFileName, t.TempDir())
	require.NoError(t, err)
	_, ok := yp.Lookup("ANYTHING")
	require.False(t, ok)
}
