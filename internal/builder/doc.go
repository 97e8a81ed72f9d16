/*
Package builder populates a depsgraph.Graph from a scene.

A build runs in several passes over the same graph:

 1. Node creation: every data-block reachable from the scene gets an ID
    node, its components and their operations. Operations that compute
    something carry an evaluation callback; ordering points (entries, exits,
    "ready" markers) are left as no-ops.

 2. Linking: the same walk adds relations between operations. Object
    transform stacks, parenting, constraints, modifiers and object data are
    linked directly. Armatures go through the rig pass, which first links
    every IK and spline IK chain while filling a RootChainMap and then links
    each bone, using the map to decide whether a dependency may read a bone
    before its solver ran. Animation curves and drivers name their targets
    by property path and are bound through the resolver.

 3. Copy-on-eval: every component of every ID node waits for the copy of
    its data-block.

 4. Cleanup: ID nodes of data-blocks that left the scene are destroyed,
    placeholder relations are pruned and the cycle solver marks the
    relations that close dependency loops.

Relations whose endpoints do not exist (a bone missing from a pose, a driver
path that does not resolve) are logged and skipped; they never fail a build.
*/
package builder
