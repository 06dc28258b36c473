// Package testkit runs Go tests against isolated copies of fixture projects
// and injects the working root and a configured build runner into the test
// body.
//
// Fixture projects live under a projects root (testdata/projects by
// default). A test selects one with Project and receives what it asks for by
// parameter type:
//
//	var suite = testkit.NewSuite("Touch",
//		testkit.Configuration{DirectoryMode: testkit.Pristine})
//
//	func TestTouch(t *testing.T) {
//		suite.Test("touch", testkit.Project("default-project-root")).
//			Run(t, func(t *testing.T, root testkit.Root, r *runner.Runner) {
//				result, err := r.WithArguments("touch").Build(t.Context())
//				require.NoError(t, err)
//				buildassert.Task(t, result, ":touch").IsSuccess()
//			})
//	}
//
// Configuration values are merged per field, closest scope first: the test
// case, its suite, each enclosing suite, then FIXTUREKIT_* environment
// variables, fixturekit.yaml, the FIXTUREKIT_INTERNAL flag, and the
// defaults.
//
// The working root is materialized before the body runs and released by
// t.Cleanup afterwards. The runner is built on first use and shared by every
// parameter of the same test.
package testkit
