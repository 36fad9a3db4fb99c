package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/EgorLis/twitchbot/internal/chatclient"
	"github.com/EgorLis/twitchbot/internal/logging"
	"github.com/EgorLis/twitchbot/internal/usercmd"
)

// Moderators — список модераторов, который умеет следить за своим файлом.
type Moderators interface {
	chatclient.Moderators
	Watch(ctx context.Context) error
}

type TwitchBot struct {
	client     *chatclient.Client
	mods       Moderators
	cmds       *usercmd.Manager
	moderation *usercmd.Moderation
	mirror     *chatclient.ListenerFuncs

	cfg *configStore
	log *slog.Logger

	stopCh chan struct{}
	done   chan error
	wg     sync.WaitGroup
	mu     sync.Mutex

	// объявления
	anMu       sync.Mutex
	chat       chatSender
	announcers map[string]*announcer
	minEvery   time.Duration
}

func New(log *slog.Logger) *TwitchBot {
	if log == nil {
		log = logging.Nop()
	}
	return &TwitchBot{
		log:        log,
		cfg:        newConfigStore(""),
		announcers: make(map[string]*announcer),
		minEvery:   MinAnnounceInterval,
	}
}

func (bot *TwitchBot) SetClient(c *chatclient.Client) { bot.client = c }

func (bot *TwitchBot) SetModerators(m Moderators) { bot.mods = m }

func (bot *TwitchBot) SetUserCommands(m *usercmd.Manager) {
	bot.cmds = m
	bot.moderation = usercmd.NewModeration(m, bot, bot.log)
}

// SetMirror дублирует чат (включая сообщения самого бота) в w.
func (bot *TwitchBot) SetMirror(w io.Writer) {
	var mu sync.Mutex
	bot.mirror = &chatclient.ListenerFuncs{
		Message: func(_ chatclient.ChatClient, sender, text string) {
			mu.Lock()
			fmt.Fprintf(w, "[%s] %s: %s\n", time.Now().Format("15:04:05"), sender, text)
			mu.Unlock()
		},
	}
}

// IsModerator — проверка для собственных команд бота и модерации
// пользовательских команд.
func (bot *TwitchBot) IsModerator(name string) bool {
	return bot.mods != nil && bot.mods.IsModerator(name)
}

// ========================= плагин =========================

func (bot *TwitchBot) OnLoad(chatclient.ChatClient) {
	if bot.cmds == nil {
		return
	}
	if err := bot.cmds.Load(); err != nil {
		bot.log.Error("load user commands", "err", err)
	}
}

func (bot *TwitchBot) OnStart(c chatclient.ChatClient) {
	if bot.moderation != nil {
		bot.moderation.Register(c)
	}
	if bot.cmds != nil {
		bot.cmds.RegisterAll(c)
	}
	bot.registerCommands(c)

	if bot.mirror != nil {
		if err := c.RegisterListener(bot.mirror); err != nil && !errors.Is(err, chatclient.ErrDuplicateListener) {
			bot.log.Error("register chat mirror", "err", err)
		}
	}
	bot.startAnnouncements(c)
}

func (bot *TwitchBot) OnStop(chatclient.ChatClient) {
	bot.stopAnnouncements()
	if bot.cmds != nil {
		bot.cmds.Detach()
	}
}

func (bot *TwitchBot) OnMessage(_ chatclient.ChatClient, sender, text string) {
	bot.log.Debug("chat", "from", sender, "text", text)
}

// ========================= жизненный цикл =========================

// Start подключает клиента в фоне. Результат Connect придёт в Done().
func (bot *TwitchBot) Start(ctx context.Context) error {
	if bot == nil {
		return errors.New("бот не инициализирован")
	}
	if bot.client == nil {
		return errors.New("клиент чата не задан")
	}

	bot.mu.Lock()
	if bot.stopCh != nil {
		bot.mu.Unlock()
		return errors.New("уже запущен")
	}
	bot.stopCh = make(chan struct{})
	bot.done = make(chan error, 1)
	stopCh, done := bot.stopCh, bot.done
	bot.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)

	// ручные правки файлов подхватываются на лету
	if bot.mods != nil {
		if err := bot.mods.Watch(ctx); err != nil {
			bot.log.Warn("moderators file is not watched", "err", err)
		}
	}
	if bot.cmds != nil {
		if err := bot.cmds.Watch(ctx); err != nil {
			bot.log.Warn("commands file is not watched", "err", err)
		}
	}

	bot.wg.Add(2)
	go func() {
		defer bot.wg.Done()
		err := bot.client.Connect(ctx)
		if err != nil {
			bot.log.Error("chat client stopped", "err", err)
		}
		done <- err
		cancel()
	}()

	// сторож для остановки
	go func() {
		defer bot.wg.Done()
		select {
		case <-stopCh:
		case <-ctx.Done():
		}
		bot.client.Stop()
		cancel()
	}()

	return nil
}

// Done отдаёт результат Connect, когда клиент завершился.
func (bot *TwitchBot) Done() <-chan error {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	return bot.done
}

func (bot *TwitchBot) Stop() {
	bot.mu.Lock()
	ch := bot.stopCh
	bot.stopCh = nil
	bot.mu.Unlock()

	if ch != nil {
		close(ch)     // безопасно: повторный Stop() ничего не делает
		bot.wg.Wait() // дождёмся остановки фоновых горутин
	}
}
