package commands

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/stopwatchd/internal/protocol"
)

func parse(t *testing.T, args ...string) (*CLI, *Global, *kong.Context) {
	t.Helper()
	var cli CLI
	g := NewGlobal()
	parser, err := kong.New(&cli, Options(g)...)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, g, kctx
}

func TestParse_StopWithIdentifiers(t *testing.T) {
	cli, _, kctx := parse(t, "stop", "work", "a1b2", "-l")
	assert.True(t, strings.HasPrefix(kctx.Command(), "stop"))
	assert.Equal(t, []string{"work", "a1b2"}, cli.Stop.Identifiers)

	cmd := cli.Stop.command(protocol.KindStop)
	assert.Equal(t, protocol.KindStop, cmd.Kind)
	assert.True(t, cmd.Verbose)
}

func TestParse_InfoWithoutIdentifiers(t *testing.T) {
	cli, _, kctx := parse(t, "info")
	assert.Equal(t, "info", kctx.Command())
	assert.Empty(t, cli.Info.command(protocol.KindInfo).Identifiers)
}

func TestParse_StartPaused(t *testing.T) {
	cli, _, _ := parse(t, "start", "--paused", "tea")
	assert.Equal(t, "tea", cli.Start.Name)
	assert.True(t, cli.Start.Paused)
}

func TestParse_GlobalFlags(t *testing.T) {
	cli, g, _ := parse(t, "-v", "-o", "json", "--config", "/tmp/sw.yaml", "ping")
	assert.True(t, cli.Verbose)
	assert.Equal(t, "json", cli.Output)
	assert.Equal(t, "/tmp/sw.yaml", cli.Config)
	assert.Equal(t, slog.LevelDebug, g.LevelVar.Level())
}

func TestParse_RejectsUnknownOutput(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, Options(NewGlobal())...)
	require.NoError(t, err)
	_, err = parser.Parse([]string{"-o", "yaml", "info"})
	assert.Error(t, err)
}
