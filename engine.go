package asyncssh

import (
	"os"
	"time"

	"golang.org/x/crypto/ssh"
)

// MethodType identifies one of the negotiable SSH algorithm slots.
type MethodType int

const (
	MethodKex MethodType = iota
	MethodHostKey
	MethodCryptCS
	MethodCryptSC
	MethodMacCS
	MethodMacSC
	MethodCompCS
	MethodCompSC
	MethodLangCS
	MethodLangSC
)

// HashType selects a host key fingerprint algorithm.
type HashType int

const (
	HashMD5 HashType = iota
	HashSHA1
	HashSHA256
)

// HostKeyType identifies the algorithm of the server host key.
type HostKeyType int

const (
	HostKeyUnknown HostKeyType = iota
	HostKeyRSA
	HostKeyDSS
	HostKeyECDSA256
	HostKeyECDSA384
	HostKeyECDSA521
	HostKeyED25519
)

// HostKey is the raw server host key as negotiated during the handshake.
type HostKey struct {
	// Blob is the key in SSH wire format.
	Blob []byte
	Type HostKeyType
}

// PublicKey parses the host key blob into an ssh.PublicKey.
func (k HostKey) PublicKey() (ssh.PublicKey, error) {
	return ssh.ParsePublicKey(k.Blob)
}

// DisconnectCode is an SSH_MSG_DISCONNECT reason code (RFC 4253, section 11.1).
type DisconnectCode int

const (
	DisconnectHostNotAllowedToConnect     DisconnectCode = 1
	DisconnectProtocolError               DisconnectCode = 2
	DisconnectKeyExchangeFailed           DisconnectCode = 3
	DisconnectReserved                    DisconnectCode = 4
	DisconnectMacError                    DisconnectCode = 5
	DisconnectCompressionError            DisconnectCode = 6
	DisconnectServiceNotAvailable         DisconnectCode = 7
	DisconnectProtocolVersionNotSupported DisconnectCode = 8
	DisconnectHostKeyNotVerifiable        DisconnectCode = 9
	DisconnectConnectionLost              DisconnectCode = 10
	DisconnectByApplication               DisconnectCode = 11
	DisconnectTooManyConnections          DisconnectCode = 12
	DisconnectAuthCancelledByUser         DisconnectCode = 13
	DisconnectNoMoreAuthMethodsAvailable  DisconnectCode = 14
	DisconnectIllegalUserName             DisconnectCode = 15
)

// KeyboardInteractiveChallenge is invoked by the engine during
// keyboard-interactive authentication. It receives the server's prompt
// batch and returns one answer per question. echos reports, per question,
// whether the user's answer may be echoed.
type KeyboardInteractiveChallenge func(name, instruction string, questions []string, echos []bool) ([]string, error)

// Endpoint is a host/port pair, used as the originator address of a
// direct-tcpip channel.
type Endpoint struct {
	Host string
	Port uint16
}

// Identity is one public key held by the authentication agent.
type Identity struct {
	// Blob is the public key in SSH wire format.
	Blob    []byte
	Comment string
}

// PublicKey parses the identity blob into an ssh.PublicKey.
func (id Identity) PublicKey() (ssh.PublicKey, error) {
	return ssh.ParsePublicKey(id.Blob)
}

// PtySize is the dimensions of a requested pseudo-terminal. Pixel
// dimensions may be zero when only character cells are known.
type PtySize struct {
	Width    uint32
	Height   uint32
	WidthPx  uint32
	HeightPx uint32
}

// ExtendedDataMode selects how the engine routes a channel's extended data
// (stderr) relative to its primary stream.
type ExtendedDataMode int

const (
	// ExtendedDataNormal keeps extended data readable on its own stream id.
	ExtendedDataNormal ExtendedDataMode = iota
	// ExtendedDataIgnore discards extended data.
	ExtendedDataIgnore
	// ExtendedDataMerge merges extended data into the primary stream.
	ExtendedDataMerge
)

// ExitSignal describes the signal that terminated the remote process, if any.
type ExitSignal struct {
	Signal       string
	ErrorMessage string
	Language     string
}

// ReadWindow is a snapshot of a channel's receive flow-control window.
type ReadWindow struct {
	Remaining   uint32
	Available   uint32
	InitialSize uint32
}

// WriteWindow is a snapshot of a channel's send flow-control window.
type WriteWindow struct {
	Remaining   uint32
	InitialSize uint32
}

// Well-known channel stream ids.
const (
	StreamStdout = 0
	StreamStderr = 1
)

// OpenFlags control how an SFTP file is opened.
type OpenFlags uint32

const (
	FlagRead OpenFlags = 1 << iota
	FlagWrite
	FlagAppend
	FlagCreate
	FlagTruncate
	FlagExclusive
)

// OpenType distinguishes file handles from directory handles.
type OpenType int

const (
	OpenTypeFile OpenType = iota
	OpenTypeDir
)

// RenameFlags qualify an SFTP rename request.
type RenameFlags uint32

const (
	RenameOverwrite RenameFlags = 1 << iota
	RenameAtomic
	RenameNative
)

// StatFlags report which fields of a FileStat are valid.
type StatFlags uint32

const (
	StatSize StatFlags = 1 << iota
	StatUIDGID
	StatPerm
	StatTimes
)

// FileStat is the subset of file attributes carried by the SFTP protocol.
type FileStat struct {
	Flags StatFlags

	Size  uint64
	UID   uint32
	GID   uint32
	Mode  os.FileMode
	Atime time.Time
	Mtime time.Time
}

// IsDir reports whether the stat describes a directory.
func (st FileStat) IsDir() bool { return st.Mode.IsDir() }

// DirEntry is one entry read from a remote directory.
type DirEntry struct {
	Name string
	Stat FileStat
}

// FileInfo adapts the entry to an os.FileInfo.
func (e DirEntry) FileInfo() os.FileInfo {
	return fileInfo{name: e.Name, stat: e.Stat}
}

type fileInfo struct {
	name string
	stat FileStat
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return int64(fi.stat.Size) }
func (fi fileInfo) Mode() os.FileMode  { return fi.stat.Mode }
func (fi fileInfo) ModTime() time.Time { return fi.stat.Mtime }
func (fi fileInfo) IsDir() bool        { return fi.stat.IsDir() }
func (fi fileInfo) Sys() any           { return fi.stat }

// ScpFileStat describes the remote file of an SCP download.
type ScpFileStat struct {
	Mode  os.FileMode
	Size  uint64
	Mtime time.Time
	Atime time.Time
}

// ScpTimes carries the optional timestamps of an SCP upload.
type ScpTimes struct {
	Mtime time.Time
	Atime time.Time
}

// SessionEngine is the session-level protocol engine contract.
//
// Every fallible operation returns nil on success, ErrWouldBlock when it
// cannot progress without further network I/O, or a hard error. The engine
// must be placed in non-blocking mode with SetBlocking(false) before any
// operation is attempted through the bridge; NewSession does this.
//
// BlockDirection is a connection-wide query: it is read-only, must be safe
// to call concurrently with operations on any engine object derived from
// this session, and reflects the direction of the most recent would-block.
//
// Because derived handles serialize exclusive access per narrower engine
// object only, engines must internally synchronize the connection-wide
// state shared between a session and its derived objects.
type SessionEngine interface {
	SetBlocking(blocking bool)
	BlockDirection() BlockDirection

	Handshake() error

	AuthPassword(username, password string) error
	AuthKeyboardInteractive(username string, challenge KeyboardInteractiveChallenge) error
	AuthAgent(username string) error
	// AuthPublicKeyFile authenticates with a key pair on disk. An empty
	// publicKeyPath derives the public key from the private key file.
	AuthPublicKeyFile(username, publicKeyPath, privateKeyPath, passphrase string) error
	// AuthPublicKey authenticates with in-memory key material. A nil
	// publicKey derives the public key from the private key data.
	AuthPublicKey(username string, publicKey, privateKey []byte, passphrase string) error
	AuthHostBased(username, publicKeyPath, privateKeyPath, passphrase, hostname, localUsername string) error
	Authenticated() bool
	// AuthMethods returns the comma-separated authentication methods the
	// server offers for username.
	AuthMethods(username string) (string, error)

	SetMethodPref(method MethodType, prefs string) error
	// Methods returns the negotiated algorithm for the given slot, if the
	// handshake has completed.
	Methods(method MethodType) (string, bool)
	SupportedAlgs(method MethodType) ([]string, error)

	Banner() (string, bool)
	HostKey() (HostKey, bool)
	HostKeyHash(hash HashType) ([]byte, bool)

	// Keepalive sends a keepalive message and returns the recommended
	// delay before the next one.
	Keepalive() (time.Duration, error)
	Disconnect(reason DisconnectCode, description, lang string) error

	OpenAgent() (AgentEngine, error)
	OpenChannel() (ChannelEngine, error)
	OpenChannelType(chanType string, windowSize, packetSize uint32, message string) (ChannelEngine, error)
	OpenDirectTCPIP(host string, port uint16, src *Endpoint) (ChannelEngine, error)
	// ForwardListen asks the server to listen on host:port and returns the
	// listener together with the port actually bound (relevant when port
	// is zero).
	ForwardListen(host string, port uint16, queueSize int) (ListenerEngine, uint16, error)
	OpenSftp() (SftpEngine, error)
	ScpRecv(path string) (ChannelEngine, ScpFileStat, error)
	ScpSend(path string, mode os.FileMode, size uint64, times *ScpTimes) (ChannelEngine, error)
}

// AgentEngine is the engine contract for the key agent connection.
type AgentEngine interface {
	Connect() error
	Disconnect() error
	// RefreshIdentities asks the agent for its current identity list.
	RefreshIdentities() error
	// Identities returns the list fetched by the last RefreshIdentities.
	Identities() ([]Identity, error)
	AuthWithIdentity(username string, identity Identity) error
}

// ChannelEngine is the engine contract for one SSH channel.
type ChannelEngine interface {
	Setenv(name, value string) error
	RequestPty(term string, modes ssh.TerminalModes, size *PtySize) error
	ResizePty(size PtySize) error
	RequestAgentForwarding() error
	Exec(command string) error
	Shell() error
	Subsystem(name string) error
	ProcessStartup(request, message string) error
	HandleExtendedData(mode ExtendedDataMode) error

	// Stream returns the stream-capable engine object for the given
	// substream id (StreamStdout, StreamStderr, or a higher extended id).
	Stream(id int) StreamEngine

	ExitStatus() (int, error)
	ExitSignal() (ExitSignal, error)
	ReadWindow() (ReadWindow, error)
	WriteWindow() (WriteWindow, error)
	AdjustReceiveWindow(adjust uint64, force bool) (uint64, error)

	// EOF reports whether the remote peer has sent end-of-file. It never
	// blocks.
	EOF() bool
	SendEOF() error
	WaitEOF() error
	Close() error
	WaitClose() error
}

// ListenerEngine is the engine contract for a remote port-forward listener.
type ListenerEngine interface {
	Accept() (ChannelEngine, error)
}

// SftpEngine is the engine contract for the SFTP subsystem.
type SftpEngine interface {
	OpenMode(path string, flags OpenFlags, mode os.FileMode, typ OpenType) (FileEngine, error)
	ReadDir(path string) ([]DirEntry, error)
	Mkdir(path string, mode os.FileMode) error
	Rmdir(path string) error
	Stat(path string) (FileStat, error)
	Lstat(path string) (FileStat, error)
	SetStat(path string, stat FileStat) error
	// Symlink creates a symbolic link at linkPath pointing at targetPath.
	Symlink(targetPath, linkPath string) error
	ReadLink(path string) (string, error)
	RealPath(path string) (string, error)
	Rename(oldPath, newPath string, flags RenameFlags) error
	Unlink(path string) error
	Shutdown() error
}

// FileEngine is the engine contract for one open SFTP file or directory
// handle. Read, Write and Flush follow the StreamEngine conventions.
type FileEngine interface {
	StreamEngine

	Stat() (FileStat, error)
	SetStat(stat FileStat) error
	// ReadDirEntry returns the next entry of a handle opened with
	// OpenTypeDir. io.EOF signals the end of the directory.
	ReadDirEntry() (DirEntry, error)
	Fsync() error
	Close() error
}

// StreamEngine is the byte-level contract shared by channel substreams and
// SFTP file handles. Read and Write return ErrWouldBlock when a complete
// protocol unit cannot be assembled or flushed without further socket I/O;
// a short count with a nil error is a valid result. Read returns io.EOF at
// end of stream.
type StreamEngine interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Flush() error
}
