// Package harness runs end-to-end SuQL scenarios.
//
// A scenario declares relationships, loads a SuQL script into a fresh
// session, requests SQL and checks the outcome. Results are compared against
// inline expectations and against golden files.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: select_group
//	description: "Group and count with a qualified where"
//	dialect: mysql              # optional, default: schema dialect, then mysql
//	schema: ../schemas/users.cue  # optional, relative to the scenario file
//	relations:                  # optional, appended to the schema relations
//	  - left: {table: users, alias: u}
//	    right: {table: user_group, alias: ug}
//	    on: u.id = ug.user_id
//	script: |
//	  SELECT FROM users
//	  INNER JOIN user_group
//	    group_id.count@n
//	  ;
//	queries: [main]             # optional, default: main
//	expect:
//	  main: "select count(user_group.group_id) as n from users inner join ..."
//	expect_error: UNRESOLVED_JOIN   # optional, instead of expect
//
// # Deterministic Testing
//
// Every scenario runs in a new session with a fixed session id
// (testutil.FixedIDGenerator) and a discarding logger, so the golden
// snapshot of a scenario is byte-identical across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/select_group.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
