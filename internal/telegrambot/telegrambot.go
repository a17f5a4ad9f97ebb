package telegrambot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/MrPunder/qr-generator/internal/client"
	"github.com/MrPunder/qr-generator/internal/logger"
	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/MrPunder/qr-generator/internal/storage"
)

const (
	DefaultSize = 300
	MaxSize     = 1024
	// Ограничение Telegram на длину сообщения заодно ограничивает полезную нагрузку
	maxPayload = 2048

	fallbackCaption = "Сервис QR-кодов недоступен, отправлен запасной узор"
)

var (
	ErrEmptyToken = errors.New("telegram token is empty")
	ErrBadSize    = errors.New("size must be a number between 1 and 1024")
	ErrBadColors  = errors.New("usage: /color #000000 #ffffff")
	ErrBadVCard   = errors.New("usage: /vcard Имя; телефон; email; организация; сайт")
)

// Config представляет конфигурацию Telegram-бота
type Config struct {
	Token    string // Токен бота
	Settings Settings
}

// Settings параметры изображения для отдельного чата
type Settings struct {
	Size       int
	Foreground models.Color
	Background models.Color
}

func DefaultSettings() Settings {
	return Settings{Size: DefaultSize, Foreground: models.Black, Background: models.White}
}

// Generator источник изображений; в боте это client.Generator
type Generator interface {
	Generate(ctx context.Context, req models.EncodeRequest) (*client.Result, error)
}

// QRBot отвечает на текст картинкой с QR-кодом
type QRBot struct {
	bot       *tele.Bot
	generator Generator
	store     storage.Storage
	logger    logger.Logger
	defaults  Settings
	timeout   time.Duration

	mu       sync.RWMutex
	settings map[int64]Settings
}

// NewQRBot создает бота. store может быть nil, тогда история не ведется.
func NewQRBot(config Config, generator Generator, store storage.Storage, logger logger.Logger) (*QRBot, error) {
	if config.Token == "" {
		return nil, ErrEmptyToken
	}

	pref := tele.Settings{
		Token:  config.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	qb := newQRBot(generator, store, logger, config.Settings)
	qb.bot = bot
	qb.register(bot)
	return qb, nil
}

func newQRBot(generator Generator, store storage.Storage, logger logger.Logger, defaults Settings) *QRBot {
	if defaults.Size <= 0 {
		defaults = DefaultSettings()
	}
	return &QRBot{
		generator: generator,
		store:     store,
		logger:    logger,
		defaults:  defaults,
		timeout:   15 * time.Second,
		settings:  make(map[int64]Settings),
	}
}

func (qb *QRBot) register(bot *tele.Bot) {
	bot.Handle("/start", qb.handleStart)
	bot.Handle("/help", qb.handleStart)
	bot.Handle("/size", qb.handleSize)
	bot.Handle("/color", qb.handleColor)
	bot.Handle("/vcard", qb.handleVCard)
	bot.Handle("/history", qb.handleHistory)
	bot.Handle(tele.OnText, qb.handleText)
}

// Start запускает опрос в отдельной горутине
func (qb *QRBot) Start() error {
	qb.logger.Info("Запуск QR-бота")
	go qb.bot.Start()
	return nil
}

func (qb *QRBot) Stop() error {
	qb.logger.Info("Остановка QR-бота")
	qb.bot.Stop()
	return nil
}

func (qb *QRBot) chatSettings(chatID int64) Settings {
	qb.mu.RLock()
	defer qb.mu.RUnlock()
	if s, ok := qb.settings[chatID]; ok {
		return s
	}
	return qb.defaults
}

func (qb *QRBot) updateSettings(chatID int64, update func(*Settings)) Settings {
	qb.mu.Lock()
	defer qb.mu.Unlock()
	s, ok := qb.settings[chatID]
	if !ok {
		s = qb.defaults
	}
	update(&s)
	qb.settings[chatID] = s
	return s
}

func chatID(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if sender := c.Sender(); sender != nil {
		return sender.ID
	}
	return 0
}

func (qb *QRBot) handleStart(c tele.Context) error {
	return c.Send(helpText)
}

const helpText = `Отправь любой текст или ссылку, и я пришлю QR-код.
/size 300 - размер картинки в пикселях
/color #000000 #ffffff - цвет кода и фона
/vcard Имя; телефон; email; организация; сайт - визитка
/history - последние коды`

func (qb *QRBot) handleSize(c tele.Context) error {
	size, err := parseSize(c.Message().Payload)
	if err != nil {
		return c.Send(err.Error())
	}
	qb.updateSettings(chatID(c), func(s *Settings) { s.Size = size })
	return c.Send(fmt.Sprintf("Размер: %d px", size))
}

func (qb *QRBot) handleColor(c tele.Context) error {
	fg, bg, err := parseColors(c.Message().Payload)
	if err != nil {
		return c.Send(err.Error())
	}
	qb.updateSettings(chatID(c), func(s *Settings) {
		s.Foreground = fg
		s.Background = bg
	})
	return c.Send(fmt.Sprintf("Цвета: %s на %s", fg.Hex(), bg.Hex()))
}

func (qb *QRBot) handleVCard(c tele.Context) error {
	card, err := parseVCard(c.Message().Payload)
	if err != nil {
		return c.Send(err.Error())
	}
	return qb.sendQR(c, card.String())
}

func (qb *QRBot) handleHistory(c tele.Context) error {
	if qb.store == nil {
		return c.Send("История отключена")
	}

	ctx, cancel := context.WithTimeout(context.Background(), qb.timeout)
	defer cancel()

	entries, err := qb.store.GetHistory(ctx, historyOwner(chatID(c)))
	if err != nil {
		qb.logger.Errorf("Ошибка получения истории: %v", err)
		return c.Send("Не удалось получить историю, попробуй позже")
	}
	return c.Send(formatHistory(entries))
}

func (qb *QRBot) handleText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" || strings.HasPrefix(text, "/") {
		return c.Send(helpText)
	}
	return qb.sendQR(c, text)
}

func (qb *QRBot) sendQR(c tele.Context, payload string) error {
	if len(payload) > maxPayload {
		return c.Send("Слишком длинный текст")
	}

	settings := qb.chatSettings(chatID(c))
	req := models.EncodeRequest{
		Payload:    payload,
		Size:       settings.Size,
		Margin:     2,
		Foreground: settings.Foreground,
		Background: settings.Background,
		Format:     models.FormatPNG,
	}

	ctx, cancel := context.WithTimeout(context.Background(), qb.timeout)
	defer cancel()

	res, err := qb.generator.Generate(ctx, req)
	if err != nil {
		qb.logger.Errorf("Ошибка генерации QR-кода для чата %d: %v", chatID(c), err)
		return c.Send("Не удалось построить изображение")
	}

	if qb.store != nil {
		entry := models.NewHistoryEntry(req)
		entry.Owner = historyOwner(chatID(c))
		if err := qb.store.AddEntry(ctx, entry); err != nil {
			qb.logger.Errorf("Ошибка сохранения истории: %v", err)
		}
	}

	photo := &tele.Photo{File: tele.FromReader(bytes.NewReader(res.Image.Data))}
	if res.Fallback {
		photo.Caption = fallbackCaption
	}
	return c.Send(photo)
}

// historyOwner у каждого чата своя история, чужие тексты в /history не попадают
func historyOwner(chat int64) string {
	return fmt.Sprintf("tg:%d", chat)
}

func parseSize(s string) (int, error) {
	size, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || size <= 0 || size > MaxSize {
		return 0, ErrBadSize
	}
	return size, nil
}

func parseColors(s string) (models.Color, models.Color, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return models.Color{}, models.Color{}, ErrBadColors
	}
	fg, err := models.ParseColor(parts[0])
	if err != nil {
		return models.Color{}, models.Color{}, ErrBadColors
	}
	bg, err := models.ParseColor(parts[1])
	if err != nil {
		return models.Color{}, models.Color{}, ErrBadColors
	}
	return fg, bg, nil
}

// parseVCard разбирает "Имя; телефон; email; организация; сайт", все поля кроме имени необязательны
func parseVCard(s string) (models.VCard, error) {
	parts := strings.Split(s, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) > 5 || parts[0] == "" {
		return models.VCard{}, ErrBadVCard
	}
	for len(parts) < 5 {
		parts = append(parts, "")
	}
	return models.VCard{
		Name:         parts[0],
		Phone:        parts[1],
		Email:        parts[2],
		Organization: parts[3],
		Website:      parts[4],
	}, nil
}

func formatHistory(entries []*models.HistoryEntry) string {
	if len(entries) == 0 {
		return "История пуста"
	}

	var sb strings.Builder
	sb.WriteString("Последние коды:\n")
	for i, e := range entries {
		text := e.Text
		if r := []rune(text); len(r) > 40 {
			text = string(r[:40]) + "…"
		}
		fmt.Fprintf(&sb, "%d. %s (%d px, %s)\n", i+1, text, e.Size, e.Timestamp.Format("02.01 15:04"))
	}
	return strings.TrimRight(sb.String(), "\n")
}
