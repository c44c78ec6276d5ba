// Package engine содержит ядро движка выполнения workflow.
//
// Включает:
//   - context.go  — ExecutionContext, передаваемый обработчикам узлов
//   - router.go   — выбор преемников по исходящим рёбрам и исходу узла
//   - template.go — подстановка переменных {{input.x}} / {{output.y}}
//   - condition.go — вычисление условий if_else
//   - virtual.go  — валидация сгенерированных виртуальных workflow
//
// Engine отвечает за понимание структуры графа и определение
// следующего шага; сами обработчики узлов живут в пакете nodes.
package engine
