/*
Package ports defines the driven ports (interfaces) of the pathway engine.

These interfaces decouple playback and authoring from storage, so the same engine
runs against memory, Redis, SQLite or module files.

# Key Interfaces

  - ModuleRepository: loads and saves module graphs.
  - VariableRepository and ConditionRepository: the rules routers are checked against.
  - LearnerStateStore: per learner variables and interaction history.
  - CursorStore: the navigation position of each playback session.
  - ProgressStore and CompletionStore: what learners visited and finished.
  - DistributedLocker: serializes access to one session across replicas.

Reusable contract suites for adapters live in the tests subpackage.
*/
package ports
