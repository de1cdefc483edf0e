package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/config"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

func TestFormatLogLine(t *testing.T) {
	line := `{"level":"WARN","ts":"10.03.2025 - 14:30:15.123456789+05:00","caller":"x.go:1","msg":"Символ пропущен","symbol":"BTCUSDT","error":"503"}`
	assert.Equal(t, "[14:30:15] [WARN] Символ пропущен (error: 503) (symbol: BTCUSDT)", formatLogLine(line))

	assert.Equal(t, "plain text", formatLogLine("plain text"))
}

func TestLoadLogsKeepsTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.json.log")
	var b strings.Builder
	for i := 0; i < maxLogLines+10; i++ {
		b.WriteString("line\n")
	}
	b.WriteString("last\n")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))

	ui := NewTermUI(config.UIConfig{}, path)
	require.NoError(t, ui.loadLogsFromFile())
	assert.Len(t, ui.logs, maxLogLines)
	assert.Equal(t, "last", ui.logs[len(ui.logs)-1])

	missing := NewTermUI(config.UIConfig{}, filepath.Join(t.TempDir(), "none.log"))
	assert.NoError(t, missing.loadLogsFromFile())
}

func TestAddSignalKeepsLatestPerSymbol(t *testing.T) {
	ui := NewTermUI(config.UIConfig{}, "")
	ui.UpdateSignals([]*models.Signal{
		{Symbol: "ETHUSDT", Action: models.ActionBuy, Confidence: 77},
		{Symbol: "BTCUSDT", Action: models.ActionBuy, Confidence: 80},
		{Symbol: "ETHUSDT", Action: models.ActionSell, Confidence: 90},
	})
	ui.AddSignal(nil)

	assert.Len(t, ui.signals, 2)
	assert.Equal(t, 90, ui.signals["ETHUSDT"].Confidence)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, sortedSymbols(ui.signals))
}

func TestViewRendersSelectedDetails(t *testing.T) {
	ui := NewTermUI(config.UIConfig{}, "")
	ui.AddSignal(&models.Signal{
		Symbol:    "BTCUSDT",
		Action:    models.ActionBuy,
		Reasons:   []string{"Bullish structure", "Bid-heavy"},
		Structure: "bull (strength:5)",
		Timestamp: time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC),
	})

	view := bubbleModel{ui: ui}.View()
	assert.Contains(t, view, "BTCUSDT")
	assert.Contains(t, view, "Bullish structure, Bid-heavy")
	assert.Contains(t, view, "bull (strength:5)")
}

func TestUpdateNavigation(t *testing.T) {
	ui := NewTermUI(config.UIConfig{}, "")
	ui.UpdateSignals([]*models.Signal{{Symbol: "BTCUSDT"}, {Symbol: "ETHUSDT"}})
	m := bubbleModel{ui: ui}

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, ui.selectedIndex)

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, ui.selectedIndex)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAddSignalWhileRunning(t *testing.T) {
	ui := NewTermUI(config.UIConfig{RefreshRate: 5}, filepath.Join(t.TempDir(), "none.log"))
	ui.options = []tea.ProgramOption{tea.WithInput(nil), tea.WithOutput(io.Discard)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ui.Start(ctx) }()

	for i := 0; i < 200; i++ {
		ui.AddSignal(&models.Signal{Symbol: fmt.Sprintf("S%dUSDT", i%5), Action: models.ActionBuy})
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("панель не завершилась после отмены контекста")
	}
	assert.Nil(t, ui.program.Load())
	assert.Len(t, sortedSymbols(ui.signals), 5)

	// После выхода панели сигналы принимаются без блокировки
	ui.AddSignal(&models.Signal{Symbol: "BTCUSDT"})
	assert.Len(t, ui.signals, 6)
}
