package bot

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/EgorLis/twitchbot/internal/chatclient"
	"github.com/EgorLis/twitchbot/internal/usercmd"
)

// сплит с поддержкой кавычек: !announce add promo 600 "follow the channel"
var reArg = regexp.MustCompile(`"([^"]*)"|(\S+)`)

const announceUsage = "!announce add <name> <seconds> <message...> | del <name> | list"

func (bot *TwitchBot) registerCommands(c chatclient.ChatClient) {
	if c.IsCommandRegistered("announce") {
		return
	}
	cmd, err := c.RegisterCommand("announce", chatclient.CommandFunc(bot.onAnnounce))
	if err != nil {
		bot.log.Error("register announce", "err", err)
		return
	}
	cmd.SetUsage(announceUsage).SetDescription("Periodic announcements.")
}

// onAnnounce разбирает исходный текст команды заново, чтобы поддержать
// кавычки в сообщении.
func (bot *TwitchBot) onAnnounce(c chatclient.ChatClient, sender string, _ *chatclient.Command, _ string, args []string) bool {
	if !bot.IsModerator(sender) {
		bot.log.Warn("unauthorized command", "label", "announce", "from", sender)
		return true
	}
	fields := splitArgs(strings.Join(args, " "))
	if len(fields) < 2 {
		return false
	}

	switch strings.ToLower(fields[1]) {
	case "add":
		if len(fields) < 5 {
			return false
		}
		name := usercmd.Name(fields[2])
		secs, err := strconv.Atoi(fields[3])
		if err != nil || name == "" {
			return false
		}
		if every := time.Duration(secs) * time.Second; every < bot.minEvery {
			c.SendMessage(fmt.Sprintf("Interval must be at least %ds, @%s", int(bot.minEvery/time.Second), sender))
			return true
		}
		a := AnnouncementConf{Name: name, Every: secs, Message: strings.Join(fields[4:], " ")}
		bot.cfg.put(a)
		if err := bot.cfg.Save(); err != nil {
			bot.log.Error("save bot config", "err", err)
		}
		bot.startAnnouncement(a)
		c.SendMessage(fmt.Sprintf("Announcement %s every %ds added, @%s", name, secs, sender))
		return true

	case "del":
		if len(fields) < 3 {
			return false
		}
		name := usercmd.Name(fields[2])
		if !bot.cfg.remove(name) {
			c.SendMessage("Announcement doesn't exist, @" + sender)
			return true
		}
		if err := bot.cfg.Save(); err != nil {
			bot.log.Error("save bot config", "err", err)
		}
		bot.stopAnnouncement(name)
		c.SendMessage("Announcement removed, @" + sender)
		return true

	case "list":
		list := bot.cfg.snapshot()
		if len(list) == 0 {
			c.SendMessage("Announcements: (none)")
			return true
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		parts := make([]string, 0, len(list))
		for _, a := range list {
			parts = append(parts, fmt.Sprintf("%s (%ds)", a.Name, a.Every))
		}
		c.SendMessage("Announcements: " + strings.Join(parts, ", "))
		return true
	}
	return false
}

func splitArgs(s string) []string {
	var out []string
	for _, m := range reArg.FindAllStringSubmatch(s, -1) {
		if m[1] != "" {
			out = append(out, m[1])
		} else {
			out = append(out, m[2])
		}
	}
	return out
}
