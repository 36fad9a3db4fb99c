// Package chatclient реализует IRC-клиент чата Twitch (TMI) для бота.
// Клиент держит одно соединение с irc.chat.twitch.tv (tcp, tls или
// websocket), проходит рукопожатие PASS/NICK, заходит в канал и обслуживает
// входящие строки:
//
//   - PING → PONG сразу через очередь отправки;
//   - RECONNECT → флаг переподключения после штатной остановки;
//   - "!команда аргументы" → поиск в реестре команд и вызов исполнителя;
//   - обычные сообщения → плагин (OnMessage) и слушатели.
//
// Состояния: Disconnected → Connecting → Authenticating → Joining →
// Serving → Stopping → Disconnected (и снова Connecting, если выставлен
// флаг переподключения).
//
// Отправка сериализована отдельной горутиной (Writer) с ограниченной
// очередью: если очередь заполнена, сообщение выбрасывается и пишется в лог,
// вызывающий никогда не блокируется.
//
// Встроенные команды (help, restart, stop) регистрируются в начале каждой
// сессии; restart и stop доступны только модераторам.
//
// Пример:
//
//	c := chatclient.New(chatclient.Config{
//	    Username: "nuclearbot",
//	    Token:    "oauth:xxxx",
//	    Channel:  "nuclearcoder",
//	}, myPlugin, chatclient.WithModerators(mods), chatclient.WithLogger(log))
//
//	_, _ = c.RegisterCommand("ping", chatclient.CommandFunc(
//	    func(c chatclient.ChatClient, sender string, cmd *chatclient.Command, label string, args []string) bool {
//	        c.SendMessage("pong")
//	        return true
//	    }))
//
//	// блокирует до Stop() или отмены контекста
//	if err := c.Connect(ctx); err != nil { log.Error("client", "err", err) }
package chatclient
