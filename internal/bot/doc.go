// Package bot — “склейка” вокруг chatclient, moderators и usercmd,
// реализующая прикладного бота для чата Twitch. Бот:
//   - привязывается к клиенту как его единственный плагин;
//   - регистрирует команды модерации (!cmdadd, !cmdrem, !cmdusage, !cmddesc)
//     и пользовательские команды из commands.json;
//   - ведёт периодические объявления (!announce add|del|list), которые
//     пишутся в чат, только пока клиент обслуживает канал;
//   - дублирует чат в консоль (SetMirror);
//   - перечитывает moderators.json и commands.json при ручной правке.
//
// Жизненный цикл:
//   - Создать бота через New().
//   - Передать модераторов и команды: SetModerators(...), SetUserCommands(...).
//   - Создать клиента с ботом в роли плагина и отдать его боту: SetClient(...).
//   - (Опционально) UseConfig("conf/botconfig.json") — загрузит объявления.
//   - Запустить Start(ctx) и остановить Stop().
//
// Пример:
//
//	b := bot.New(log)
//	b.SetModerators(mods)
//	b.SetUserCommands(cmds)
//	client := chatclient.New(chatCfg, b, chatclient.WithModerators(mods))
//	b.SetClient(client)
//	_ = b.UseConfig("conf/botconfig.json")
//
//	if err := b.Start(ctx); err != nil { log.Error(...) }
//	defer b.Stop()
//	err := <-b.Done() // Connect вернулся (например, после !stop)
//
// Конфигурация:
//   - хранится в JSON (см. BotConfig): список объявлений. Команды в чате
//     меняют рантайм-состояние и сразу сохраняют файл.
package bot
