// Package nodes содержит обработчики типов узлов workflow.
//
// Каждый тип узла (start, if_else, fork, agent, guardrails,
// user_approval, cognitive) реализует интерфейс Handler и
// регистрируется в Registry. Узел end обработчика не имеет:
// его терминальную семантику реализует executor.
//
// Обработчики чистые по отношению к инфраструктуре: возвращают
// Result, а журнал, события и очередь обслуживает executor.
package nodes
