package server

import (
	"errors"
	"fmt"
	"image"
	"os"

	"deedles.dev/wlcomp/compositor"
	"deedles.dev/wlcomp/internal/debug"
	"deedles.dev/wlcomp/internal/objstore"
	"deedles.dev/wlcomp/region"
	"deedles.dev/wlcomp/shell"
	"deedles.dev/wlcomp/shm"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client is a connected client. It owns every object that the client
// has created, and all of them are destroyed when it disconnects.
type Client struct {
	server *Server
	id     uuid.UUID
	sink   EventSink
	store  *objstore.Store
	log    zerolog.Logger
	closed bool
}

// Connect registers a new client whose events are delivered to sink.
func (s *Server) Connect(sink EventSink) *Client {
	id := uuid.New()
	c := Client{
		server: s,
		id:     id,
		sink:   sink,
		store:  objstore.New(),
		log:    s.log.With().Stringer("client", id).Logger(),
	}
	s.clients.Add(&c)
	s.metrics.AddClients(1)

	c.log.Info().Msg("client connected")
	return &c
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	return s.clients.Len()
}

func (c *Client) ID() uuid.UUID {
	return c.id
}

func (c *Client) String() string {
	return "client(" + c.id.String() + ")"
}

// Objects returns the number of live objects that the client owns.
func (c *Client) Objects() int {
	return c.store.Len()
}

// Close destroys all of the client's objects and unregisters it.
func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true

	c.store.Clear()
	c.server.clients.Delete(c)
	c.server.metrics.AddClients(-1)
	c.log.Info().Msg("client disconnected")
}

// postError sends a protocol error about an object and returns err.
func (c *Client) postError(objectID, code uint32, iface string, err error) error {
	debug.Printf("%v: %v error %v on object %v: %v", c, iface, code, objectID, err)
	c.sink.PostError(objectID, code, err.Error())
	c.server.metrics.ProtocolError(iface)
	return err
}

func (c *Client) add(id uint32, obj objstore.Object) error {
	if c.closed {
		return errors.New("client closed")
	}
	if (id == 0) || c.store.Has(id) {
		return c.postError(DisplayObjectID, DisplayErrorInvalidObject, "wl_display", DuplicateObjectError{ID: id})
	}
	c.store.Add(id, obj)
	return nil
}

// lookup finds the object with the given ID if it has type T.
func lookup[T objstore.Object](c *Client, id uint32, want string) (T, error) {
	obj, ok := c.store.Get(id).(T)
	if !ok {
		return obj, UnknownObjectError{ID: id, Want: want}
	}
	return obj, nil
}

// request is like lookup, but a missing object is a protocol error.
// It is for request handlers, which act on IDs sent by the client.
func request[T objstore.Object](c *Client, id uint32, want string) (T, error) {
	obj, err := lookup[T](c, id, want)
	if err != nil {
		return obj, c.postError(DisplayObjectID, DisplayErrorInvalidObject, "wl_display", err)
	}
	return obj, nil
}

// Destroy destroys the object with the given ID and releases the ID.
func (c *Client) Destroy(id uint32) error {
	if !c.store.Has(id) {
		return c.postError(DisplayObjectID, DisplayErrorInvalidObject, "wl_display", UnknownObjectError{ID: id, Want: "any"})
	}

	debug.Printf("%v: destroy %v", c, id)
	c.store.Delete(id)
	c.sink.DeleteID(id)
	return nil
}

// CreateSurface handles wl_compositor.create_surface.
func (c *Client) CreateSurface(id uint32) (*compositor.Surface, error) {
	surface := compositor.NewSurface(id, c.server)
	err := c.add(id, surfaceObject{client: c, surface: surface})
	if err != nil {
		return nil, err
	}

	c.server.owners[surface] = c
	c.server.metrics.AddSurfaces(1)
	return surface, nil
}

// Surface returns the surface with the given ID.
func (c *Client) Surface(id uint32) (*compositor.Surface, error) {
	obj, err := lookup[surfaceObject](c, id, "wl_surface")
	return obj.surface, err
}

func (c *Client) surface(id uint32) (*compositor.Surface, error) {
	obj, err := request[surfaceObject](c, id, "wl_surface")
	return obj.surface, err
}

// CreateRegion handles wl_compositor.create_region.
func (c *Client) CreateRegion(id uint32) (*region.Region, error) {
	r := region.New()
	err := c.add(id, regionObject{r})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Region returns the region with the given ID.
func (c *Client) Region(id uint32) (*region.Region, error) {
	obj, err := lookup[regionObject](c, id, "wl_region")
	return obj.Region, err
}

func (c *Client) region(id uint32) (*region.Region, error) {
	obj, err := request[regionObject](c, id, "wl_region")
	return obj.Region, err
}

// Frame handles wl_surface.frame. The callback fires after the
// surface is next drawn and its ID is released afterwards.
func (c *Client) Frame(surfaceID, callbackID uint32) error {
	surface, err := c.surface(surfaceID)
	if err != nil {
		return err
	}

	cb := callbackObject{client: c, id: callbackID}
	err = c.add(callbackID, &cb)
	if err != nil {
		return err
	}
	surface.AddCallback(&cb)
	return nil
}

// Attach handles wl_surface.attach. A buffer ID of zero detaches the
// current buffer.
func (c *Client) Attach(surfaceID, bufferID uint32, dx, dy int) error {
	surface, err := c.surface(surfaceID)
	if err != nil {
		return err
	}

	if bufferID == 0 {
		surface.DetachBuffer()
		return nil
	}

	buf, err := request[bufferObject](c, bufferID, "wl_buffer")
	if err != nil {
		return err
	}
	surface.AttachBuffer(buf.buffer, dx, dy)
	return nil
}

// Damage handles wl_surface.damage.
func (c *Client) Damage(surfaceID uint32, rect image.Rectangle) error {
	surface, err := c.surface(surfaceID)
	if err != nil {
		return err
	}

	err = surface.MarkDamaged(rect)
	if err != nil {
		return c.postError(surfaceID, DisplayErrorImplementation, "wl_surface", err)
	}
	return nil
}

// SetInputRegion handles wl_surface.set_input_region. A region ID of
// zero makes the whole surface accept input.
func (c *Client) SetInputRegion(surfaceID, regionID uint32) error {
	surface, err := c.surface(surfaceID)
	if err != nil {
		return err
	}

	if regionID == 0 {
		surface.RemoveInputRegion()
		return nil
	}
	r, err := c.region(regionID)
	if err != nil {
		return err
	}
	surface.SetInputRegion(r)
	return nil
}

// SetOpaqueRegion handles wl_surface.set_opaque_region.
func (c *Client) SetOpaqueRegion(surfaceID, regionID uint32) error {
	surface, err := c.surface(surfaceID)
	if err != nil {
		return err
	}

	if regionID == 0 {
		surface.RemoveOpaqueRegion()
		return nil
	}
	r, err := c.region(regionID)
	if err != nil {
		return err
	}
	surface.SetOpaqueRegion(r)
	return nil
}

// SetBufferTransform handles wl_surface.set_buffer_transform.
func (c *Client) SetBufferTransform(surfaceID uint32, t compositor.OutputTransform) error {
	surface, err := c.surface(surfaceID)
	if err != nil {
		return err
	}

	err = surface.SetBufferTransform(t)
	if err != nil {
		return c.postError(surfaceID, compositor.SurfaceErrorInvalidTransform, "wl_surface", err)
	}
	return nil
}

// SetBufferScale handles wl_surface.set_buffer_scale.
func (c *Client) SetBufferScale(surfaceID uint32, scale int32) error {
	surface, err := c.surface(surfaceID)
	if err != nil {
		return err
	}

	err = surface.SetScale(scale)
	if err != nil {
		return c.postError(surfaceID, compositor.SurfaceErrorInvalidScale, "wl_surface", err)
	}
	return nil
}

// Commit handles wl_surface.commit.
func (c *Client) Commit(surfaceID uint32) error {
	surface, err := c.surface(surfaceID)
	if err != nil {
		return err
	}

	surface.Commit()
	c.server.metrics.Commit()
	c.server.pointer.Refocus()
	return nil
}

// CreatePool handles wl_shm.create_pool. The pool takes ownership of
// file.
func (c *Client) CreatePool(id uint32, file *os.File, size int) error {
	pool, err := shm.NewPool(file, size)
	if err != nil {
		file.Close()
		code := shm.ErrorInvalidFD
		if errors.Is(err, shm.ErrInvalidSize) {
			code = shm.ErrorInvalidStride
		}
		return c.postError(DisplayObjectID, code, "wl_shm", err)
	}

	err = c.add(id, poolObject{client: c, pool: pool})
	if err != nil {
		pool.Destroy()
		return err
	}
	return nil
}

// ResizePool handles wl_shm_pool.resize.
func (c *Client) ResizePool(id uint32, size int) error {
	obj, err := request[poolObject](c, id, "wl_shm_pool")
	if err != nil {
		return err
	}

	err = obj.pool.Resize(size)
	if err != nil {
		return c.postError(id, shm.ErrorInvalidStride, "wl_shm", err)
	}
	return nil
}

// CreateBuffer handles wl_shm_pool.create_buffer.
func (c *Client) CreateBuffer(poolID, id uint32, offset, width, height, stride int, format shm.Format) error {
	obj, err := request[poolObject](c, poolID, "wl_shm_pool")
	if err != nil {
		return err
	}

	buf, err := obj.pool.CreateBuffer(offset, width, height, stride, format, func() { c.sink.Release(id) })
	if err != nil {
		code := shm.ErrorInvalidStride
		if errors.Is(err, shm.ErrInvalidFormat) {
			code = shm.ErrorInvalidFormat
		}
		return c.postError(poolID, code, "wl_shm", err)
	}

	err = c.add(id, bufferObject{client: c, buffer: buf})
	if err != nil {
		buf.Destroy()
		return err
	}
	return nil
}

// GetShellSurface handles wl_shell.get_shell_surface. The new window is
// placed on top of the application layer. Destroying the surface also
// destroys the shell surface object and releases its ID.
func (c *Client) GetShellSurface(id, surfaceID uint32) (*shell.Surface, error) {
	surface, err := c.surface(surfaceID)
	if err != nil {
		return nil, err
	}
	if c.store.Has(id) {
		return nil, c.postError(DisplayObjectID, DisplayErrorInvalidObject, "wl_display", DuplicateObjectError{ID: id})
	}

	ss, err := c.server.shell.GetShellSurface(
		requester{client: c, objectID: DisplayObjectID},
		id,
		surface,
		shellResource{client: c, id: id},
	)
	if err != nil {
		return nil, err
	}

	obj := shellSurfaceObject{shell: ss}
	obj.view = surface.NewView(nil)
	c.server.scene.Application().Add(obj.view)
	ss.OnDestroy(func() {
		c.server.scene.RemoveView(obj.view)
		surface.RemoveView(obj.view)
		c.server.RequestRender(surface)
	})

	surface.OnDestroy(func() {
		if cur, ok := c.store.Get(id).(*shellSurfaceObject); ok && (cur == &obj) {
			c.store.Delete(id)
			c.sink.DeleteID(id)
		}
	})

	c.store.Add(id, &obj)
	c.server.RequestRender(surface)
	return ss, nil
}

// ShellSurface returns the shell surface with the given ID.
func (c *Client) ShellSurface(id uint32) (*shell.Surface, error) {
	obj, err := lookup[*shellSurfaceObject](c, id, "wl_shell_surface")
	if err != nil {
		return nil, err
	}
	return obj.shell, nil
}

func (c *Client) shellSurface(id uint32) (*shell.Surface, error) {
	obj, err := request[*shellSurfaceObject](c, id, "wl_shell_surface")
	if err != nil {
		return nil, err
	}
	return obj.shell, nil
}

// Pong handles wl_shell_surface.pong.
func (c *Client) Pong(id, serial uint32) error {
	ss, err := c.shellSurface(id)
	if err != nil {
		return err
	}
	ss.Pong(serial)
	return nil
}

// Move handles wl_shell_surface.move. Requests that don't match the
// button press that is being held are ignored.
func (c *Client) Move(id, serial uint32) error {
	ss, err := c.shellSurface(id)
	if err != nil {
		return err
	}

	err = ss.Move(c.server.pointer, serial)
	if err != nil {
		c.log.Debug().Err(err).Uint32("serial", serial).Msg("move rejected")
	}
	return nil
}

// Resize handles wl_shell_surface.resize. Requests that don't match the
// button press that is being held are ignored.
func (c *Client) Resize(id, serial uint32, edges shell.Edge) error {
	ss, err := c.shellSurface(id)
	if err != nil {
		return err
	}

	err = ss.Resize(ss.Resource(), c.server.pointer, serial, edges)
	if err != nil {
		c.log.Debug().Err(err).Uint32("serial", serial).Msg("resize rejected")
	}
	return nil
}

// SetToplevel handles wl_shell_surface.set_toplevel. A fullscreen
// window is returned to the application layer.
func (c *Client) SetToplevel(id uint32) error {
	obj, err := request[*shellSurfaceObject](c, id, "wl_shell_surface")
	if err != nil {
		return err
	}

	obj.shell.SetToplevel()
	scene := c.server.scene
	if scene.Fullscreen().RemoveIfEqual(obj.view) {
		scene.Application().Add(obj.view)
	}
	c.server.RequestRender(obj.shell.Surface())
	return nil
}

// SetTransient handles wl_shell_surface.set_transient.
func (c *Client) SetTransient(id, parentID uint32, offset image.Point) error {
	ss, err := c.shellSurface(id)
	if err != nil {
		return err
	}
	parent, err := c.surface(parentID)
	if err != nil {
		return err
	}

	ss.SetTransient(parent, offset)
	return nil
}

// SetFullscreen handles wl_shell_surface.set_fullscreen. The window
// replaces whatever was fullscreen before and is moved to the origin.
func (c *Client) SetFullscreen(id uint32) error {
	obj, err := request[*shellSurfaceObject](c, id, "wl_shell_surface")
	if err != nil {
		return err
	}

	obj.shell.SetFullscreen()
	scene := c.server.scene
	if prev := scene.Fullscreen().View(); (prev != nil) && (prev != obj.view) {
		scene.Application().Add(prev)
	}
	scene.Application().Remove(obj.view)
	scene.Fullscreen().SetView(obj.view)
	obj.shell.Surface().SetPosition(image.Point{})
	return nil
}

// SetTitle handles wl_shell_surface.set_title.
func (c *Client) SetTitle(id uint32, title string) error {
	ss, err := c.shellSurface(id)
	if err != nil {
		return err
	}
	ss.SetTitle(title)
	return nil
}

// SetClass handles wl_shell_surface.set_class.
func (c *Client) SetClass(id uint32, class string) error {
	ss, err := c.shellSurface(id)
	if err != nil {
		return err
	}
	ss.SetClass(class)
	return nil
}

// GetSubsurface handles wl_subcompositor.get_subsurface.
func (c *Client) GetSubsurface(id, surfaceID, parentID uint32) (*compositor.Subsurface, error) {
	surface, err := c.surface(surfaceID)
	if err != nil {
		return nil, err
	}
	parent, err := c.surface(parentID)
	if err != nil {
		return nil, err
	}
	if c.store.Has(id) {
		return nil, c.postError(DisplayObjectID, DisplayErrorInvalidObject, "wl_display", DuplicateObjectError{ID: id})
	}

	sub, err := compositor.NewSubsurface(surface, parent)
	if err != nil {
		return nil, c.postError(DisplayObjectID, SubcompositorErrorBadSurface, "wl_subcompositor", err)
	}

	c.store.Add(id, subsurfaceObject{sub: sub})
	return sub, nil
}

// Subsurface returns the sub-surface with the given ID.
func (c *Client) Subsurface(id uint32) (*compositor.Subsurface, error) {
	obj, err := lookup[subsurfaceObject](c, id, "wl_subsurface")
	return obj.sub, err
}

// SetCursor handles wl_pointer.set_cursor. A surface ID of zero hides
// the cursor.
func (c *Client) SetCursor(pointerID, surfaceID uint32, hotspot image.Point) error {
	p := c.server.pointer
	if surfaceID == 0 {
		p.RemoveCursor()
		c.server.RequestRender(nil)
		return nil
	}

	surface, err := c.surface(surfaceID)
	if err != nil {
		return err
	}

	err = p.SetCursor(surface, hotspot)
	if err != nil {
		return c.postError(pointerID, PointerErrorRole, "wl_pointer", fmt.Errorf("set cursor: %w", err))
	}
	c.server.RequestRender(surface)
	return nil
}
