// Package worker выполняет вызовы flow из очереди.
//
// # Обзор
//
// Worker — stateless компонент toolflow. Он получает сообщения
// invocation.requested из очереди invocations.requested, вызывает
// Orchestrator.Invoke и публикует execution.finished.
//
// Трасса выполнения сохраняется самим оркестратором через Recorder,
// поэтому worker не обращается к БД напрямую.
//
// Workers масштабируются горизонтально: несколько экземпляров
// потребляют из одной очереди.
//
// # Подтверждение сообщений
//
//   - вызов выполнен (успешно или с ошибкой flow) — ack;
//   - flow не найден или выключен, сообщение не разбирается — nack без
//     повтора, сообщение уходит в dlq.invocations;
//   - прочие ошибки (например, БД недоступна) — nack с повтором.
//
// Ошибка публикации execution.finished только логируется: повтор
// сообщения выполнил бы flow второй раз.
//
// # Использование
//
//	w := worker.New(worker.Config{
//	    Conn:      mqConn,
//	    Invoker:   orch,
//	    Publisher: mq.NewPublisher(mqConn, logger),
//	    Logger:    logger,
//	})
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
//	defer w.Stop()
package worker
