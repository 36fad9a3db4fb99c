package bot

import (
	"context"
	"sort"
	"time"

	"github.com/EgorLis/twitchbot/internal/chatclient"
)

// Twitch не любит частые одинаковые сообщения
const MinAnnounceInterval = 30 * time.Second

// chatSender — то, что нужно циклу объявлений от клиента.
type chatSender interface {
	SendMessage(text string)
	State() chatclient.State
}

type announcer struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (bot *TwitchBot) startAnnouncements(c chatSender) {
	bot.anMu.Lock()
	bot.chat = c
	bot.anMu.Unlock()

	for _, a := range bot.cfg.snapshot() {
		bot.startAnnouncement(a)
	}
}

func (bot *TwitchBot) stopAnnouncements() {
	bot.anMu.Lock()
	list := bot.announcers
	bot.announcers = make(map[string]*announcer)
	bot.chat = nil
	bot.anMu.Unlock()

	for _, an := range list {
		an.cancel()
		<-an.done
	}
}

// startAnnouncement (пере)запускает цикл объявления. Без активной сессии
// ничего не делает: цикл запустится в следующем OnStart.
func (bot *TwitchBot) startAnnouncement(a AnnouncementConf) {
	bot.stopAnnouncement(a.Name)

	bot.anMu.Lock()
	defer bot.anMu.Unlock()
	if bot.chat == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	an := &announcer{cancel: cancel, done: make(chan struct{})}
	bot.announcers[a.Name] = an

	every := time.Duration(a.Every) * time.Second
	go func() {
		defer close(an.done)
		announceLoop(ctx, every, a.Message, bot.chat)
	}()
}

func (bot *TwitchBot) stopAnnouncement(name string) {
	bot.anMu.Lock()
	an, ok := bot.announcers[name]
	delete(bot.announcers, name)
	bot.anMu.Unlock()
	if ok {
		an.cancel()
		<-an.done
	}
}

func (bot *TwitchBot) runningAnnouncements() []string {
	bot.anMu.Lock()
	defer bot.anMu.Unlock()
	out := make([]string, 0, len(bot.announcers))
	for name := range bot.announcers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// announceLoop — живёт, пока не отменят ctx. В разрыв соединения не пишет:
// тик просто пропускается.
func announceLoop(ctx context.Context, every time.Duration, msg string, c chatSender) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if c.State() != chatclient.StateServing {
				continue
			}
			c.SendMessage(msg)
		}
	}
}
