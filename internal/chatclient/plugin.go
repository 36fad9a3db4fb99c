package chatclient

// ChatClient — то, что видят плагины и исполнители команд.
type ChatClient interface {
	Command(label string) *Command
	RegisterCommand(label string, executor CommandExecutor) (*Command, error)
	UnregisterCommand(label string) error
	UnregisterAllCommands()
	IsCommandRegistered(label string) bool

	RegisterListener(l Listener) error
	UnregisterListener(l Listener) error
	UnregisterAllListeners()

	SendMessage(text string)
	Stop()

	Username() string
	Channel() string
	State() State
}

// Plugin — единственный привязанный к клиенту плагин.
// OnLoad вызывается один раз на Connect, OnStart/OnStop — на каждую сессию
// (в том числе после мягкого рестарта), OnMessage — на каждое сообщение чата,
// которое не является командой.
type Plugin interface {
	OnLoad(c ChatClient)
	OnStart(c ChatClient)
	OnStop(c ChatClient)
	OnMessage(c ChatClient, sender, text string)
}

// NopPlugin ничего не делает.
type NopPlugin struct{}

func (NopPlugin) OnLoad(ChatClient)                    {}
func (NopPlugin) OnStart(ChatClient)                   {}
func (NopPlugin) OnStop(ChatClient)                    {}
func (NopPlugin) OnMessage(ChatClient, string, string) {}

// CommandExecutor обрабатывает команду. args[0] — исходный первый токен
// ("!hug"), дальше аргументы. false означает неверное использование: клиент
// сам ответит строкой "Usage: ...".
type CommandExecutor interface {
	OnCommand(c ChatClient, sender string, cmd *Command, label string, args []string) bool
}

// CommandFunc позволяет использовать обычную функцию как исполнителя.
type CommandFunc func(c ChatClient, sender string, cmd *Command, label string, args []string) bool

func (f CommandFunc) OnCommand(c ChatClient, sender string, cmd *Command, label string, args []string) bool {
	return f(c, sender, cmd, label, args)
}

// Moderators — внешний список модераторов (только проверка членства).
type Moderators interface {
	IsModerator(name string) bool
}

type noModerators struct{}

func (noModerators) IsModerator(string) bool { return false }
