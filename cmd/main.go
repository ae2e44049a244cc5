// resmgr loads, inspects and mounts resource archives through the
// asynchronous resource manager.
//
// Usage:
//
//	# Decode resources from a directory archive
//	resmgr load --main ./assets textures/a.png cfg/game.yaml
//
//	# Preload everything under a mask from a zip with patches layered on top
//	resmgr cache --kind zip --main base.otr --patches ./mods "textures/*"
//
//	# Mount the archive read-only
//	resmgr mount --main ./assets /mnt/assets
package main

func main() {
	Execute()
}
