// Package assets tracks stock-footage previews and downloads per keyword.
//
// Each keyword from the script has its own state: a chosen source, the last
// preview, and a status of idle, searching, downloading, or downloaded. At
// most one search and one download run per keyword, but keywords never wait
// on each other. A finished download is permanent and freezes the keyword's
// source; it also republishes the aggregate assets artifact to the workflow.
// DownloadAll is the batch alternative and overwrites that artifact with its
// positional result.
package assets
