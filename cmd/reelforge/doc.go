// Command reelforge is the operator CLI for the content-to-video service.
//
// Two paths are offered. The pipeline commands start one end-to-end session on
// the service and follow it through its phases. The stage commands (mine,
// script, narrate, assets, render) drive the five manual stages one at a time,
// with the workspace state kept in a local SQLite database so consecutive
// invocations continue where the previous one stopped.
package main
