package server

import (
	"deedles.dev/wlcomp/compositor"
	"deedles.dev/wlcomp/region"
	"deedles.dev/wlcomp/shell"
	"deedles.dev/wlcomp/shm"
)

// The types in this file adapt compositor state to objstore.Object so
// that a client's objects are all torn down together.

type surfaceObject struct {
	client  *Client
	surface *compositor.Surface
}

func (obj surfaceObject) Destroy() {
	c := obj.client
	c.server.scene.RemoveAllViews(obj.surface)
	obj.surface.Destroy()
	delete(c.server.owners, obj.surface)
	c.server.metrics.AddSurfaces(-1)
	c.server.pointer.Refocus()
	c.server.RequestRender(obj.surface)
}

type regionObject struct {
	*region.Region
}

func (regionObject) Destroy() {}

type callbackObject struct {
	client *Client
	id     uint32
}

func (obj *callbackObject) Done(time uint32) {
	obj.client.sink.Done(obj.id, time)
	obj.client.Destroy(obj.id)
}

func (*callbackObject) Destroy() {}

type poolObject struct {
	client *Client
	pool   *shm.Pool
}

func (obj poolObject) Destroy() {
	err := obj.pool.Destroy()
	if err != nil {
		obj.client.log.Error().Err(err).Msg("destroy pool")
	}
}

type bufferObject struct {
	client *Client
	buffer *shm.Buffer
}

func (obj bufferObject) Destroy() {
	err := obj.buffer.Destroy()
	if err != nil {
		obj.client.log.Error().Err(err).Msg("destroy buffer")
	}
}

type shellSurfaceObject struct {
	shell *shell.Surface
	view  *compositor.View
}

func (obj *shellSurfaceObject) Destroy() {
	obj.shell.Destroy()
}

type subsurfaceObject struct {
	sub *compositor.Subsurface
}

func (obj subsurfaceObject) Destroy() {
	obj.sub.Destroy()
}

// requester posts errors about a particular object to its client.
type requester struct {
	client   *Client
	objectID uint32
}

func (r requester) PostError(code uint32, msg string) {
	r.client.sink.PostError(r.objectID, code, msg)
}

// shellResource sends shell surface events to the client.
type shellResource struct {
	client *Client
	id     uint32
}

func (r shellResource) Ping(serial uint32) {
	r.client.sink.Ping(r.id, serial)
}

func (r shellResource) Configure(edges shell.Edge, width, height int32) {
	r.client.sink.Configure(r.id, edges, width, height)
}
