// Package depsgraph is the container of the evaluation graph of one scene.
//
// A Graph indexes ID nodes by the identity of the authoritative data-block
// they wrap, keeps the copy-on-eval mirror of every expanded data-block and
// owns every relation in a single arena. Relations are only ever created and
// removed through the Graph, which keeps both endpoints consistent.
//
// Builds are single threaded. The only state shared with an evaluator is the
// pending-update set, guarded by a spin lock, and the coarse
// evaluating/active flags.
package depsgraph
