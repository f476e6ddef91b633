// Package config loads scenario files for the sso command.
//
// A scenario describes a store and a sequence of operations to run against
// it, with optional expectations. Scenarios are JSON or YAML; the format is
// chosen by file extension.
//
// # Scenario File Structure
//
//	name: profile
//	fields:
//	  count: 1
//	  age: 2
//	computed:
//	  b: sum:age,count
//	steps:
//	  - op: subscribe
//	    key: count
//	    listener: view
//	  - op: set
//	    key: count
//	    value: 2
//	  - op: get
//	    key: b
//	    expect: 4
//	  - op: notified
//	    listener: view
//	    expect: 1
//	  - op: set
//	    key: b
//	    value: 1
//	    expectError: computed property
//
// # Usage
//
//	sc, err := config.Load("testdata/profile.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Steps:", len(sc.Steps))
package config
