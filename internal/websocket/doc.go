// Package websocket pushes dashboard notifications to browsers. The Hub
// fans events out to every connected Client and satisfies the events
// publisher contract, so a snapshot reload reaches open dashboards without
// polling.
package websocket
