package usercmd

import (
	"log/slog"
	"strings"

	"github.com/EgorLis/twitchbot/internal/chatclient"
	"github.com/EgorLis/twitchbot/internal/logging"
)

// Moderation — команды чата для правки пользовательских команд:
//
//	!cmdadd <name> <response>
//	!cmdrem <name>
//	!cmdusage <name> <usage>
//	!cmddesc <name> <description>
//
// Не-модераторов молча игнорирует.
type Moderation struct {
	manager *Manager
	mods    chatclient.Moderators
	log     *slog.Logger
}

func NewModeration(m *Manager, mods chatclient.Moderators, log *slog.Logger) *Moderation {
	if log == nil {
		log = logging.Nop()
	}
	return &Moderation{manager: m, mods: mods, log: log}
}

var moderationCommands = []struct{ label, usage, description string }{
	{"cmdadd", "!cmdadd <name> <response>", "Creates a user command."},
	{"cmdrem", "!cmdrem <name>", "Removes a user command."},
	{"cmdusage", "!cmdusage <name> <usage>", "Sets the usage of a user command."},
	{"cmddesc", "!cmddesc <name> <description>", "Sets the description of a user command."},
}

// Register добавляет команды модерации, которых ещё нет в реестре.
func (mo *Moderation) Register(c chatclient.ChatClient) {
	for _, mc := range moderationCommands {
		if c.IsCommandRegistered(mc.label) {
			continue
		}
		cmd, err := c.RegisterCommand(mc.label, mo)
		if err != nil {
			mo.log.Error("register moderation command", "label", mc.label, "err", err)
			continue
		}
		cmd.SetUsage(mc.usage).SetDescription(mc.description)
	}
}

func (mo *Moderation) OnCommand(c chatclient.ChatClient, sender string, _ *chatclient.Command, label string, args []string) bool {
	if mo.mods == nil || !mo.mods.IsModerator(sender) {
		return true
	}

	switch {
	case label == "cmdadd" && len(args) >= 3:
		mo.add(c, sender, args[1], strings.Join(args[2:], " "))
	case label == "cmdrem" && len(args) >= 2:
		mo.remove(c, sender, args[1])
	case label == "cmdusage" && len(args) >= 3:
		usage := strings.Join(args[2:], " ")
		mo.update(c, sender, args[1], "Command usage updated", func(i *Info) { i.Usage = usage })
	case label == "cmddesc" && len(args) >= 3:
		desc := strings.Join(args[2:], " ")
		mo.update(c, sender, args[1], "Command description updated", func(i *Info) { i.Description = desc })
	default:
		return false
	}
	return true
}

func (mo *Moderation) add(c chatclient.ChatClient, sender, name, response string) {
	if c.IsCommandRegistered(Name(name)) || mo.manager.Contains(name) {
		c.SendMessage("Command already exists, @" + sender)
		return
	}
	if err := mo.manager.Create(Info{Name: name, Response: response}); err != nil {
		mo.log.Error("create user command", "name", name, "err", err)
	}
	c.SendMessage("Command created, @" + sender)
}

func (mo *Moderation) remove(c chatclient.ChatClient, sender, name string) {
	ok, err := mo.manager.Remove(name)
	if err != nil {
		mo.log.Error("remove user command", "name", name, "err", err)
	}
	if !ok {
		c.SendMessage("Command doesn't exist, @" + sender)
		return
	}
	c.SendMessage("Command removed, @" + sender)
}

func (mo *Moderation) update(c chatclient.ChatClient, sender, name, reply string, fn func(*Info)) {
	ok, err := mo.manager.Update(name, fn)
	if err != nil {
		mo.log.Error("update user command", "name", name, "err", err)
	}
	if !ok {
		c.SendMessage("Command doesn't exist, @" + sender)
		return
	}
	c.SendMessage(reply + ", @" + sender)
}
