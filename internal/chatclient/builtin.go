package chatclient

import (
	"fmt"
	"strings"
)

type builtin struct {
	label, usage, description string
	executor                  CommandExecutor
}

func (c *Client) builtins() []builtin {
	return []builtin{
		{"help", "!help [command]", "Lists all commands or detailed information.", CommandFunc(c.helpCommand)},
		{"restart", "!restart", "Soft-restarts the bot.", CommandFunc(c.systemCommand)},
		{"stop", "!stop", "Stops the bot.", CommandFunc(c.systemCommand)},
	}
}

// registerBuiltins добавляет встроенные команды, которых ещё нет в реестре.
func (c *Client) registerBuiltins() {
	for _, b := range c.builtins() {
		if c.commands.contains(b.label) {
			continue
		}
		cmd, err := c.RegisterCommand(b.label, b.executor)
		if err != nil {
			c.log.Error("register builtin", "label", b.label, "err", err)
			continue
		}
		cmd.SetUsage(b.usage).SetDescription(b.description)
	}
}

func (c *Client) helpCommand(cc ChatClient, _ string, _ *Command, _ string, args []string) bool {
	if len(args) < 2 {
		list := "(empty)"
		if labels := c.commands.labels(); len(labels) > 0 {
			list = strings.Join(labels, ", ")
		}
		cc.SendMessage("Commands: " + list)
		return true
	}

	cmd := c.commands.get(strings.TrimPrefix(args[1], "!"))
	if cmd == nil {
		cc.SendMessage("Command does not exist.")
		return true
	}
	cc.SendMessage(fmt.Sprintf("Usage: %s - %s", cmd.Usage(), cmd.Description()))
	return true
}

// systemCommand — !restart и !stop, только для модераторов. Чужой вызов
// выглядит в чате так же, как неизвестная команда.
func (c *Client) systemCommand(_ ChatClient, sender string, _ *Command, label string, _ []string) bool {
	if !c.moderators.IsModerator(strings.ToLower(sender)) {
		c.log.Warn("unauthorized command", "label", label, "from", sender)
		return true
	}

	switch label {
	case "restart":
		c.log.Info("restart command issued", "from", sender)
		c.UnregisterAllListeners()
		c.UnregisterAllCommands()
		c.restart()
	case "stop":
		c.log.Info("stop command issued", "from", sender)
		c.Stop()
	}
	return true
}
