package hook

// Kind tags the type of asynchronous resource being announced. The values
// follow the resource names the connection layer has always reported.
type Kind string

const (
	KindTCPConnect   Kind = "TCPCONNECTWRAP"
	KindUDPConnect   Kind = "UDPWRAP"
	KindTLSHandshake Kind = "TLSWRAP"
	KindTimer        Kind = "Timeout"
	KindFileIO       Kind = "FSREQCALLBACK"
)

func (k Kind) String() string {
	return string(k)
}
