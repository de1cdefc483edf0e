package ui

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/internal/config"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/logger"
	"github.com/ahmadbin0319-crypto/crypto1m3msclapepro/pkg/models"
)

const (
	maxLogLines  = 50
	logTimestamp = "02.01.2006 - 15:04:05.999999999Z07:00"
)

// Стили UI
var (
	primaryColor   = lipgloss.Color("#0077cc")
	secondaryColor = lipgloss.Color("#333333")
	errorColor     = lipgloss.Color("#cc3300")
	successColor   = lipgloss.Color("#33cc33")
	warningColor   = lipgloss.Color("#cccc00")

	appStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1).
			Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(secondaryColor).
			Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")).
			Padding(0, 1)

	ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// TermUI терминальная панель последних сигналов и журнала
type TermUI struct {
	signals       map[string]*models.Signal
	signalsMutex  sync.RWMutex
	logs          []string
	logsMutex     sync.RWMutex
	config        config.UIConfig
	program       atomic.Pointer[tea.Program]
	options       []tea.ProgramOption
	selectedIndex int
	logFile       string
}

type refreshMsg struct{}

type bubbleModel struct {
	ui *TermUI
}

// NewTermUI создает панель. logFile путь к JSON журналу zap.
func NewTermUI(cfg config.UIConfig, logFile string) *TermUI {
	return &TermUI{
		signals: make(map[string]*models.Signal),
		logs:    []string{"Сканер запущен. Ожидание данных..."},
		config:  cfg,
		options: []tea.ProgramOption{tea.WithAltScreen()},
		logFile: logFile,
	}
}

// Start запускает панель и блокируется до выхода пользователя или отмены ctx
func (ui *TermUI) Start(ctx context.Context) error {
	program := tea.NewProgram(bubbleModel{ui: ui}, ui.options...)
	ui.program.Store(program)
	defer ui.program.Store(nil)

	refresh := time.Duration(ui.config.RefreshRate) * time.Millisecond
	if refresh <= 0 {
		refresh = time.Second
	}

	go func() {
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				program.Quit()
				return
			case <-ticker.C:
				if err := ui.loadLogsFromFile(); err != nil {
					logger.Warn("Ошибка загрузки логов", zap.Error(err))
				}
				program.Send(refreshMsg{})
			}
		}
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ошибка запуска UI: %w", err)
	}
	return nil
}

// AddSignal заменяет последний сигнал символа
func (ui *TermUI) AddSignal(sig *models.Signal) {
	if sig == nil {
		return
	}
	ui.signalsMutex.Lock()
	ui.signals[sig.Symbol] = sig
	ui.signalsMutex.Unlock()

	// До Start и после выхода панели перерисовывать нечего
	if program := ui.program.Load(); program != nil {
		program.Send(refreshMsg{})
	}
}

// UpdateSignals добавляет сигналы цикла
func (ui *TermUI) UpdateSignals(signals []*models.Signal) {
	for _, sig := range signals {
		ui.AddSignal(sig)
	}
}

func (ui *TermUI) loadLogsFromFile() error {
	file, err := os.Open(ui.logFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	var logs []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		logs = append(logs, formatLogLine(scanner.Text()))
		if len(logs) > maxLogLines {
			logs = logs[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if len(logs) > 0 {
		ui.logsMutex.Lock()
		ui.logs = logs
		ui.logsMutex.Unlock()
	}
	return nil
}

// formatLogLine превращает JSON запись zap в строку "[15:04:05] [INFO] msg (k: v)"
func formatLogLine(line string) string {
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return line
	}

	level, _ := entry["level"].(string)
	ts, _ := entry["ts"].(string)
	msg, _ := entry["msg"].(string)
	level = ansiRegex.ReplaceAllString(level, "")

	timestamp := ""
	if t, err := time.Parse(logTimestamp, ts); err == nil {
		timestamp = t.Format("15:04:05")
	}

	keys := make([]string, 0, len(entry))
	for k := range entry {
		if k != "level" && k != "ts" && k != "msg" && k != "caller" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", timestamp, level, msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " (%s: %v)", k, entry[k])
	}
	return b.String()
}

func (m bubbleModel) Init() tea.Cmd {
	return nil
}

func (m bubbleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up":
			m.ui.selectedIndex = max(0, m.ui.selectedIndex-1)
		case "down":
			m.ui.signalsMutex.RLock()
			n := len(m.ui.signals)
			m.ui.signalsMutex.RUnlock()
			m.ui.selectedIndex = max(0, min(n-1, m.ui.selectedIndex+1))
		case "r":
			if err := m.ui.loadLogsFromFile(); err != nil {
				logger.Warn("Ошибка загрузки логов", zap.Error(err))
			}
		}
	case refreshMsg:
	}
	return m, nil
}

func (m bubbleModel) View() string {
	m.ui.signalsMutex.RLock()
	m.ui.logsMutex.RLock()
	defer m.ui.signalsMutex.RUnlock()
	defer m.ui.logsMutex.RUnlock()

	symbols := sortedSymbols(m.ui.signals)

	sections := []string{
		titleStyle.Render("Скальпинг сканер Binance"),
		"\n",
		renderSignalsSection(m.ui.signals, symbols, m.ui.selectedIndex),
	}
	if m.ui.selectedIndex < len(symbols) {
		sections = append(sections, "\n", renderDetails(m.ui.signals[symbols[m.ui.selectedIndex]]))
	}
	sections = append(sections,
		"\n",
		renderLogsSection(m.ui.logs),
		"\n",
		footerStyle.Render("Клавиши: ↑/↓ - навигация, R - перезагрузить логи, Q - выход"),
	)

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func renderSignalsSection(signals map[string]*models.Signal, symbols []string, selectedIndex int) string {
	var content strings.Builder

	if len(symbols) == 0 {
		content.WriteString("  Ожидание данных...\n")
	}
	for i, symbol := range symbols {
		sig := signals[symbol]
		line := fmt.Sprintf("  %-10s %s %3d%%  Цена: %.6g  %s",
			symbol, formatAction(sig.Action), sig.Confidence, sig.Price, sig.Timestamp.Format("15:04:05"))

		if i == selectedIndex {
			line = "> " + line[2:]
			line = lipgloss.NewStyle().Background(lipgloss.Color("#222222")).Render(line)
		}
		content.WriteString(line + "\n")
	}

	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("СИГНАЛЫ"),
		content.String(),
	))
}

func renderDetails(sig *models.Signal) string {
	var content strings.Builder
	fmt.Fprintf(&content, "  SL: %.6g  TP: %.6g  Размер: %.6g\n", sig.StopLoss, sig.TakeProfit, sig.PositionSize)
	fmt.Fprintf(&content, "  RSI14: %.2f  RSI7: %.2f  EMA50: %.6g  EMA200: %.6g\n", sig.RSI14, sig.RSI7, sig.EMA50, sig.EMA200)
	fmt.Fprintf(&content, "  Структура: %s  Импульс: %d  Стакан: %.3f\n", sig.Structure, sig.Momentum, sig.OrderBook)
	fmt.Fprintf(&content, "  Причины: %s\n", strings.Join(sig.Reasons, ", "))

	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("ДЕТАЛИ "+sig.Symbol),
		content.String(),
	))
}

func renderLogsSection(logs []string) string {
	var content strings.Builder

	start := 0
	if len(logs) > maxLogLines {
		start = len(logs) - maxLogLines
	}
	for _, line := range logs[start:] {
		switch {
		case strings.Contains(line, "[ERROR]"):
			line = lipgloss.NewStyle().Foreground(errorColor).Render(line)
		case strings.Contains(line, "[INFO]"):
			line = lipgloss.NewStyle().Foreground(successColor).Render(line)
		case strings.Contains(line, "[WARN]"):
			line = lipgloss.NewStyle().Foreground(warningColor).Render(line)
		case strings.Contains(line, "[DEBUG]"):
			line = lipgloss.NewStyle().Foreground(lipgloss.Color("#9999ff")).Render(line)
		}
		content.WriteString("  " + line + "\n")
	}

	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("ЛОГИ"),
		content.String(),
	))
}

func formatAction(action models.Action) string {
	switch action {
	case models.ActionBuy:
		return lipgloss.NewStyle().Foreground(successColor).Bold(true).Render("BUY ")
	case models.ActionSell:
		return lipgloss.NewStyle().Foreground(errorColor).Bold(true).Render("SELL")
	default:
		return lipgloss.NewStyle().Foreground(warningColor).Render("----")
	}
}

func sortedSymbols(signals map[string]*models.Signal) []string {
	symbols := make([]string, 0, len(signals))
	for symbol := range signals {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
